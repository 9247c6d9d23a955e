package apirecordsv1

import (
	"github.com/fulldump/box"

	"github.com/fulldump/recordkv/service"
)

func BuildV1Records(v1 *box.R, s service.Servicer) *box.R {

	types := v1.Resource("/types").
		WithActions(
			box.Get(listTypes).WithName("listTypes"),
			box.Post(createType).WithName("createType"),
		)

	v1.Resource("/types/{typeName}").
		WithActions(
			box.Get(getType).WithName("getType"),
			box.Delete(dropType).WithName("dropType"),
		)

	v1.Resource("/types/{typeName}/records").
		WithActions(
			box.Post(createRecord).WithName("createRecord"),
			box.ActionPost(findBy).WithName("findBy"),
		)

	v1.Resource("/types/{typeName}/records/{recordId}").
		WithActions(
			box.Get(getRecord).WithName("getRecord"),
			box.Patch(patchRecord).WithName("patchRecord"),
			box.Delete(removeRecord).WithName("removeRecord"),
		)

	v1.Resource("/types/{typeName}/views/{viewName}").
		WithActions(
			box.Get(listView).WithName("listView"),
		)

	v1.Resource("/types/{typeName}/mirrors/{mirrorName}/{recordId}").
		WithActions(
			box.Get(getMirror).WithName("getMirror"),
		)

	return types
}
