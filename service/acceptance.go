package service

import (
	"net/http"

	"github.com/fulldump/apitest"
	"github.com/fulldump/biff"
)

type JSON = map[string]interface{}

func Acceptance(a *biff.A, apiRequest func(method, path string) *apitest.Request) {

	userType := JSON{
		"name":     "User",
		"required": []string{"email"},
		"indices":  []string{"email"},
		"views": []JSON{
			{"name": "all", "kind": "queue"},
			{"name": "oldest", "kind": "score", "field": "age", "reverse": true},
		},
		"mirrors": []JSON{
			{"name": "by_email", "field": "email"},
		},
	}

	a.Alternative("Create type", func(a *biff.A) {
		resp := apiRequest("POST", "/types").
			WithBodyJson(userType).Do()
		Save(resp, "Create type", `
			Declares a record type with its required fields, unique indices,
			views and mirrors.
		`)

		biff.AssertEqual(resp.StatusCode, http.StatusCreated)
		biff.AssertEqualJson(resp.BodyJson(), userType)

		a.Alternative("List types", func(a *biff.A) {
			resp := apiRequest("GET", "/types").Do()
			Save(resp, "List types", ``)

			biff.AssertEqual(resp.StatusCode, http.StatusOK)
			biff.AssertEqualJson(resp.BodyJson(), []JSON{userType})
		})

		a.Alternative("Retrieve type", func(a *biff.A) {
			resp := apiRequest("GET", "/types/User").Do()
			Save(resp, "Retrieve type", ``)

			biff.AssertEqual(resp.StatusCode, http.StatusOK)
			biff.AssertEqualJson(resp.BodyJson(), userType)
		})

		a.Alternative("Create type twice", func(a *biff.A) {
			resp := apiRequest("POST", "/types").
				WithBodyJson(userType).Do()

			biff.AssertEqual(resp.StatusCode, http.StatusConflict)
		})

		a.Alternative("Drop type", func(a *biff.A) {
			resp := apiRequest("DELETE", "/types/User").Do()
			Save(resp, "Drop type", `
				Forgets the type. Stored records are left untouched.
			`)

			biff.AssertEqual(resp.StatusCode, http.StatusNoContent)

			a.Alternative("Get dropped type", func(a *biff.A) {
				resp := apiRequest("GET", "/types/User").Do()

				biff.AssertEqual(resp.StatusCode, http.StatusNotFound)
			})
		})

		a.Alternative("Create record without required field", func(a *biff.A) {
			resp := apiRequest("POST", "/types/User/records").
				WithBodyJson(JSON{"name": "A"}).Do()
			Save(resp, "Create record - missing field", ``)

			biff.AssertEqual(resp.StatusCode, http.StatusBadRequest)
			biff.AssertEqualJson(resp.BodyJson(), JSON{
				"error": JSON{
					"message":     "missing required field(s): email",
					"description": "record is missing required fields",
				},
			})
		})

		a.Alternative("Create record with a non scalar", func(a *biff.A) {
			resp := apiRequest("POST", "/types/User/records").
				WithBodyJson(JSON{"email": "a@x.com", "tags": []string{"a"}}).Do()

			biff.AssertEqual(resp.StatusCode, http.StatusBadRequest)
		})

		a.Alternative("Create record", func(a *biff.A) {
			resp := apiRequest("POST", "/types/User/records").
				WithBodyJson(JSON{"name": "A", "email": "a@x.com", "age": 30}).Do()
			Save(resp, "Create record", ``)

			biff.AssertEqual(resp.StatusCode, http.StatusCreated)
			body := resp.BodyJson().(JSON)
			id := body["id"].(string)
			biff.AssertEqual(len(id), 32)
			expectedFields := JSON{"name": "A", "email": "a@x.com", "age": "30"}
			biff.AssertEqualJson(body["fields"], expectedFields)

			a.Alternative("Retrieve record", func(a *biff.A) {
				resp := apiRequest("GET", "/types/User/records/"+id).Do()
				Save(resp, "Retrieve record", ``)

				biff.AssertEqual(resp.StatusCode, http.StatusOK)
				biff.AssertEqualJson(resp.BodyJson(), JSON{"id": id, "fields": expectedFields})
			})

			a.Alternative("Find by index", func(a *biff.A) {
				resp := apiRequest("POST", "/types/User/records:findBy").
					WithBodyJson(JSON{"field": "email", "value": "a@x.com"}).Do()
				Save(resp, "Find by index", `
					Point lookup through a unique index.
				`)

				biff.AssertEqual(resp.StatusCode, http.StatusOK)
				biff.AssertEqualJson(resp.BodyJson(), JSON{"id": id, "fields": expectedFields})
			})

			a.Alternative("Find by a field without index", func(a *biff.A) {
				resp := apiRequest("POST", "/types/User/records:findBy").
					WithBodyJson(JSON{"field": "name", "value": "A"}).Do()

				biff.AssertEqual(resp.StatusCode, http.StatusBadRequest)
			})

			a.Alternative("List view", func(a *biff.A) {
				resp := apiRequest("GET", "/types/User/views/all").Do()
				Save(resp, "List view", ``)

				biff.AssertEqual(resp.StatusCode, http.StatusOK)
				biff.AssertEqualJson(resp.BodyJson(), JSON{
					"total": 1,
					"skip":  0,
					"limit": 20,
					"records": []JSON{
						{"id": id, "fields": expectedFields},
					},
				})
			})

			a.Alternative("Retrieve mirror", func(a *biff.A) {
				resp := apiRequest("GET", "/types/User/mirrors/by_email/a@x.com").Do()
				Save(resp, "Retrieve mirror", `
					Mirror copies are keyed by the mirrored field.
				`)

				biff.AssertEqual(resp.StatusCode, http.StatusOK)
				biff.AssertEqualJson(resp.BodyJson(), JSON{"id": "a@x.com", "fields": expectedFields})
			})

			a.Alternative("Patch record", func(a *biff.A) {
				resp := apiRequest("PATCH", "/types/User/records/"+id).
					WithBodyJson(JSON{
						"set":    JSON{"email": "a2@x.com"},
						"delete": []string{"age"},
					}).Do()
				Save(resp, "Patch record", ``)

				biff.AssertEqual(resp.StatusCode, http.StatusOK)
				biff.AssertEqualJson(resp.BodyJson(), JSON{
					"id":     id,
					"fields": JSON{"name": "A", "email": "a2@x.com"},
				})

				a.Alternative("Old value is not indexed", func(a *biff.A) {
					resp := apiRequest("POST", "/types/User/records:findBy").
						WithBodyJson(JSON{"field": "email", "value": "a@x.com"}).Do()

					biff.AssertEqual(resp.StatusCode, http.StatusNotFound)
				})

				a.Alternative("New value is indexed", func(a *biff.A) {
					resp := apiRequest("POST", "/types/User/records:findBy").
						WithBodyJson(JSON{"field": "email", "value": "a2@x.com"}).Do()

					biff.AssertEqual(resp.StatusCode, http.StatusOK)
					biff.AssertEqual(resp.BodyJson().(JSON)["id"], id)
				})

				a.Alternative("Updates do not grow queues", func(a *biff.A) {
					resp := apiRequest("GET", "/types/User/views/all").Do()

					biff.AssertEqual(resp.BodyJson().(JSON)["total"], float64(1))
				})
			})

			a.Alternative("Patch record removing a required field", func(a *biff.A) {
				resp := apiRequest("PATCH", "/types/User/records/"+id).
					WithBodyJson(JSON{"delete": []string{"email"}}).Do()

				biff.AssertEqual(resp.StatusCode, http.StatusBadRequest)
			})

			a.Alternative("Remove record", func(a *biff.A) {
				resp := apiRequest("DELETE", "/types/User/records/"+id).Do()
				Save(resp, "Remove record", `
					Deletes the record, its mirror copies, its index entries and
					its view entries.
				`)

				biff.AssertEqual(resp.StatusCode, http.StatusNoContent)

				a.Alternative("Retrieve removed record", func(a *biff.A) {
					resp := apiRequest("GET", "/types/User/records/"+id).Do()

					biff.AssertEqual(resp.StatusCode, http.StatusNotFound)
				})

				a.Alternative("Find removed record", func(a *biff.A) {
					resp := apiRequest("POST", "/types/User/records:findBy").
						WithBodyJson(JSON{"field": "email", "value": "a@x.com"}).Do()

					biff.AssertEqual(resp.StatusCode, http.StatusNotFound)
				})

				a.Alternative("Removed from views", func(a *biff.A) {
					resp := apiRequest("GET", "/types/User/views/all").Do()

					biff.AssertEqual(resp.BodyJson().(JSON)["total"], float64(0))
				})

				a.Alternative("Removed mirror", func(a *biff.A) {
					resp := apiRequest("GET", "/types/User/mirrors/by_email/a@x.com").Do()

					biff.AssertEqual(resp.StatusCode, http.StatusNotFound)
				})
			})
		})

		a.Alternative("Score view pagination", func(a *biff.A) {
			for _, user := range []JSON{
				{"name": "A", "email": "a@x.com", "age": 20},
				{"name": "B", "email": "b@x.com", "age": 40},
				{"name": "C", "email": "c@x.com", "age": 30},
			} {
				resp := apiRequest("POST", "/types/User/records").WithBodyJson(user).Do()
				biff.AssertEqual(resp.StatusCode, http.StatusCreated)
			}

			resp := apiRequest("GET", "/types/User/views/oldest?skip=1&limit=5").Do()
			Save(resp, "List view - paginated", ``)

			biff.AssertEqual(resp.StatusCode, http.StatusOK)
			page := resp.BodyJson().(JSON)
			biff.AssertEqual(page["total"], float64(3))
			records := page["records"].([]interface{})
			biff.AssertEqual(len(records), 2)
			biff.AssertEqual(records[0].(JSON)["fields"].(JSON)["name"], "C")
			biff.AssertEqual(records[1].(JSON)["fields"].(JSON)["name"], "A")
		})

		a.Alternative("Bad pagination", func(a *biff.A) {
			resp := apiRequest("GET", "/types/User/views/all?limit=-1").Do()

			biff.AssertEqual(resp.StatusCode, http.StatusBadRequest)
		})

		a.Alternative("Unknown view", func(a *biff.A) {
			resp := apiRequest("GET", "/types/User/views/nope").Do()

			biff.AssertEqual(resp.StatusCode, http.StatusNotFound)
		})

		a.Alternative("Unknown record", func(a *biff.A) {
			resp := apiRequest("GET", "/types/User/records/nobody").Do()

			biff.AssertEqual(resp.StatusCode, http.StatusNotFound)
		})
	})

	a.Alternative("Unknown type", func(a *biff.A) {
		resp := apiRequest("POST", "/types/Ghost/records").
			WithBodyJson(JSON{"name": "A"}).Do()

		biff.AssertEqual(resp.StatusCode, http.StatusNotFound)
	})
}
