package record

import (
	"testing"

	"github.com/fulldump/biff"
)

func TestNewKey_GeneratesLocal(t *testing.T) {

	a := NewKey("test", "test:", "")
	b := NewKey("test", "test:", "")

	biff.AssertEqual(len(a.Local), 32)
	biff.AssertNotEqual(a.Local, b.Local)
	biff.AssertEqual(a.String(), "test:"+a.Local)
}

func TestKey_String(t *testing.T) {

	k := NewKey("test", "prefix_test", "prefix_key")

	biff.AssertEqual(k.String(), "prefix_testprefix_key")
}

func TestKey_Equal(t *testing.T) {

	biff.AssertTrue(NewKey("p", "user:", "1").Equal(NewKey("p", "user:", "1")))
	biff.AssertTrue(NewKey("p", "user:", "1").Equal(NewKey("p", "use", "r:1")))
	biff.AssertFalse(NewKey("p", "user:", "1").Equal(NewKey("q", "user:", "1")))
	biff.AssertFalse(NewKey("p", "user:", "1").Equal(NewKey("p", "user:", "2")))
}
