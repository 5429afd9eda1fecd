package util_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hetianyi/gofdfs/common"
	"github.com/hetianyi/gofdfs/util"
	json "github.com/json-iterator/go"
)

func TestHttpWriteJsonMap(t *testing.T) {
	rec := httptest.NewRecorder()
	util.HttpWriteJson(rec, http.StatusOK, map[string]string{"width": "100", "owner": "bob"})
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "application/json; charset=utf-8" {
		t.Fatalf("unexpected response %d %v", rec.Code, rec.Header())
	}
	var meta map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &meta); err != nil {
		t.Fatal(err)
	}
	if len(meta) != 2 || meta["width"] != "100" || meta["owner"] != "bob" {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	util.HttpWriteJson(rec, http.StatusOK, map[string][]*common.FileInfo{
		"form": {{FileSize: 5, SourceIpAddr: "127.0.0.1"}},
	})
	var form map[string][]common.FileInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &form); err != nil {
		t.Fatal(err)
	}
	if len(form["form"]) != 1 || form["form"][0].FileSize != 5 {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

func TestHttpWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	util.HttpWriteError(rec, http.StatusNotFound, common.ERR_NO_ENOENT, "file not found")
	var e util.HttpError
	if err := json.Unmarshal(rec.Body.Bytes(), &e); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusNotFound || e.Code != int(common.ERR_NO_ENOENT) || e.Msg != "file not found" {
		t.Fatalf("unexpected error response %d %+v", rec.Code, e)
	}
}
