package svc

import (
	"container/list"
	"errors"
	"io"
	"net/http"
	"os"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/hetianyi/gofdfs/api"
	"github.com/hetianyi/gofdfs/common"
	"github.com/hetianyi/gofdfs/util"
	"github.com/hetianyi/gox"
	"github.com/hetianyi/gox/convert"
	"github.com/hetianyi/gox/file"
	"github.com/hetianyi/gox/httpx"
	"github.com/hetianyi/gox/logger"
	"github.com/hetianyi/gox/uuid"
	json "github.com/json-iterator/go"
)

const (
	FORM_TEXT          = "text"
	FORM_FILE          = "file"
	ContentTypePattern = "^multipart/form-data; boundary=(.*)$"
)

var RegexContentTypePattern = regexp.MustCompile(ContentTypePattern)

// FormEntry describes one field of a multipart upload.
type FormEntry struct {
	Index          int    `json:"index"`
	Type           string `json:"type"`
	ParameterName  string `json:"name"`
	ParameterValue string `json:"value"`
	Size           int64  `json:"size,omitempty"`
	Group          string `json:"group,omitempty"`
	Filename       string `json:"filename,omitempty"`
	FileId         string `json:"fileId,omitempty"`
}

// Gateway exposes storage operations over http.
// Every request runs on its own StorageClient, the tracker is shared.
type Gateway struct {
	tracker api.Tracker
	tmpDir  string
}

func NewGateway(tracker api.Tracker, tmpDir string) *Gateway {
	if tmpDir == "" {
		tmpDir = os.TempDir()
	}
	return &Gateway{
		tracker: tracker,
		tmpDir:  tmpDir,
	}
}

// Router returns the http routes of the gateway.
func (g *Gateway) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/upload", g.httpUpload).Methods("POST")
	r.HandleFunc("/download/{group}/{filename:.+}", g.httpDownload).Methods("GET")
	r.HandleFunc("/file/{group}/{filename:.+}", g.httpDelete).Methods("DELETE")
	r.HandleFunc("/info/{group}/{filename:.+}", g.httpInfo).Methods("GET")
	r.HandleFunc("/meta/{group}/{filename:.+}", g.httpGetMetadata).Methods("GET")
	r.HandleFunc("/meta/{group}/{filename:.+}", g.httpSetMetadata).Methods("POST")
	return r
}

// StartGatewayHttpServer starts the gateway and blocks until it stops.
func StartGatewayHttpServer(c *common.GatewayConfig) error {
	g := NewGateway(api.NewStaticTracker(&c.ClientConfig), "")
	srv := &http.Server{
		Handler:           g.Router(),
		Addr:              c.BindAddress + ":" + convert.IntToStr(c.HttpPort),
		ReadHeaderTimeout: time.Second * 15,
		WriteTimeout:      0,
		ReadTimeout:       0,
		MaxHeaderBytes:    1 << 20, // 1MB
	}
	logger.Info("http server listening on ", c.BindAddress, ":", c.HttpPort)
	return srv.ListenAndServe()
}

func (g *Gateway) newClient() *api.StorageClient {
	return api.NewStorageClient(g.tracker, nil)
}

func (g *Gateway) tmpFileName() string {
	return g.tmpDir + "/" + common.DEFAULT_GATEWAY_TMP_PREFIX + uuid.UUID()
}

// httpUpload uploads the raw request body, or every file field of a
// multipart form.
func (g *Gateway) httpUpload(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	logger.Debug("accept new upload request")

	q := r.URL.Query()
	group := strings.TrimSpace(q.Get("group"))
	ext := strings.TrimSpace(q.Get("ext"))
	appender := q.Get("appender") == "1" || q.Get("appender") == "true"
	metaList, err := util.ParseMetaList(q["meta"])
	if err != nil {
		util.HttpWriteError(w, http.StatusBadRequest, common.ERR_NO_EINVAL, err.Error())
		return
	}

	if RegexContentTypePattern.MatchString(r.Header.Get("Content-Type")) {
		g.formUpload(w, r, group, appender, metaList)
		return
	}

	client := g.newClient()
	var ret *common.UploadResult
	if r.ContentLength >= 0 {
		pusher := &api.StreamPusher{Reader: r.Body, Size: r.ContentLength}
		if appender {
			ret, err = client.UploadAppenderFile(group, r.ContentLength, pusher, ext, metaList)
		} else {
			ret, err = client.UploadFile(group, r.ContentLength, pusher, ext, metaList)
		}
	} else {
		// chunked body, the size must be known before sending
		tmpFileName, spoolErr := g.spool(r.Body)
		if spoolErr != nil {
			logger.Error("error spool upload body: ", spoolErr)
			util.HttpWriteError(w, http.StatusInternalServerError, common.ERR_NO_EIO, spoolErr.Error())
			return
		}
		defer file.Delete(tmpFileName)
		ret, err = uploadLocalFile(client, group, tmpFileName, ext, appender, metaList)
	}
	if err != nil {
		writeStorageError(w, err)
		return
	}
	logger.Debug("upload success: ", ret.FileId())
	util.HttpWriteJson(w, http.StatusOK, ret)
}

// formUpload uploads each file field of a multipart form. Text fields
// become metadata of the file fields following them.
func (g *Gateway) formUpload(w http.ResponseWriter, r *http.Request, group string, appender bool, metaList []common.MetaData) {
	client := g.newClient()
	formEntries := list.New()
	formEntryIndex := 0
	var uploadErr error

	handler := &httpx.FileUploadHandler{
		Request: r,
	}

	handler.OnFormField = func(paraName, paraValue string) {
		logger.Debug("form parameter: name=", paraName, ", value=", paraValue)
		formEntryIndex++
		formEntries.PushBack(FormEntry{
			Index:          formEntryIndex,
			Type:           FORM_TEXT,
			ParameterName:  paraName,
			ParameterValue: paraValue,
		})
		metaList = append(metaList, common.MetaData{Name: paraName, Value: paraValue})
	}

	handler.OnFileField = func(paraName, fileName string) *httpx.FileTransactionProcessor {
		tmpFileName := ""
		var out *os.File
		var size int64
		return &httpx.FileTransactionProcessor{
			Before: func() error {
				tmpFileName = g.tmpFileName()
				o, err := file.CreateFile(tmpFileName)
				if err != nil {
					return err
				}
				out = o
				return nil
			},
			Error: func(err error) {
				if out != nil {
					out.Close()
				}
				file.Delete(tmpFileName)
			},
			Success: func() error {
				out.Close()
				defer file.Delete(tmpFileName)
				ret, err := uploadLocalFile(client, group, tmpFileName, api.GetFileExtName(fileName), appender, metaList)
				if err != nil {
					uploadErr = err
					return err
				}
				formEntryIndex++
				formEntries.PushBack(FormEntry{
					Index:          formEntryIndex,
					Type:           FORM_FILE,
					ParameterName:  paraName,
					ParameterValue: fileName,
					Size:           size,
					Group:          ret.Group,
					Filename:       ret.Filename,
					FileId:         ret.FileId(),
				})
				return nil
			},
			Write: func(bs []byte) error {
				n, err := out.Write(bs)
				size += int64(n)
				return err
			},
		}
	}

	if err := handler.Parse(); err != nil {
		logger.Error("error upload files: ", err)
		if uploadErr != nil {
			writeStorageError(w, uploadErr)
		} else {
			util.HttpWriteError(w, http.StatusBadRequest, common.ERR_NO_EINVAL, err.Error())
		}
		return
	}

	formEntriesArray := make([]FormEntry, formEntries.Len())
	i := 0
	gox.WalkList(formEntries, func(item interface{}) bool {
		formEntriesArray[i] = item.(FormEntry)
		i++
		return false
	})
	util.HttpWriteJson(w, http.StatusOK, map[string]interface{}{
		"form": formEntriesArray,
	})
}

// spool copies in into a temporary file and returns its name.
func (g *Gateway) spool(in io.Reader) (string, error) {
	tmpFileName := g.tmpFileName()
	out, err := file.CreateFile(tmpFileName)
	if err != nil {
		return "", err
	}
	clean := func() {
		out.Close()
		file.Delete(tmpFileName)
	}
	if _, err = io.Copy(out, in); err != nil {
		clean()
		return "", err
	}
	if err = out.Close(); err != nil {
		file.Delete(tmpFileName)
		return "", err
	}
	return tmpFileName, nil
}

func uploadLocalFile(client *api.StorageClient, group string, localFilename string, ext string,
	appender bool, metaList []common.MetaData) (*common.UploadResult, error) {
	if appender {
		return client.UploadAppenderLocalFile(group, localFilename, ext, metaList)
	}
	return client.UploadLocalFile(group, localFilename, ext, metaList)
}

func (g *Gateway) httpDownload(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	group, filename := vars["group"], vars["filename"]
	offset, err := queryInt64(r, "offset")
	if err != nil {
		util.HttpWriteError(w, http.StatusBadRequest, common.ERR_NO_EINVAL, err.Error())
		return
	}
	length, err := queryInt64(r, "length")
	if err != nil {
		util.HttpWriteError(w, http.StatusBadRequest, common.ERR_NO_EINVAL, err.Error())
		return
	}

	started := false
	start := func(total int64) {
		started = true
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("Content-Length", convert.Int64ToStr(total))
		w.WriteHeader(http.StatusOK)
	}
	err = g.newClient().DownloadToPuller(group, filename, offset, length, api.PullFunc(func(total int64, chunk []byte) error {
		if !started {
			start(total)
		}
		_, err := w.Write(chunk)
		return err
	}))
	if err != nil {
		if started {
			// headers are gone, nothing left but to cut the response short
			logger.Error("download interrupted: ", group, "/", filename, ": ", err)
			return
		}
		writeStorageError(w, err)
		return
	}
	if !started {
		start(0)
	}
}

func (g *Gateway) httpDelete(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := g.newClient().DeleteFile(vars["group"], vars["filename"]); err != nil {
		writeStorageError(w, err)
		return
	}
	util.HttpWriteJson(w, http.StatusOK, &util.HttpError{Code: 0, Msg: "success"})
}

func (g *Gateway) httpInfo(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	info, err := g.newClient().GetFileInfo(vars["group"], vars["filename"])
	if err != nil {
		writeStorageError(w, err)
		return
	}
	util.HttpWriteJson(w, http.StatusOK, info)
}

func (g *Gateway) httpGetMetadata(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	metaList, err := g.newClient().GetMetadata(vars["group"], vars["filename"])
	if err != nil {
		writeStorageError(w, err)
		return
	}
	ret := make(map[string]string, len(metaList))
	for _, m := range metaList {
		ret[m.Name] = m.Value
	}
	util.HttpWriteJson(w, http.StatusOK, ret)
}

func (g *Gateway) httpSetMetadata(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	vars := mux.Vars(r)

	var flag byte
	switch strings.ToLower(r.URL.Query().Get("flag")) {
	case "", "overwrite":
		flag = common.STORAGE_SET_METADATA_FLAG_OVERWRITE
	case "merge":
		flag = common.STORAGE_SET_METADATA_FLAG_MERGE
	default:
		util.HttpWriteError(w, http.StatusBadRequest, common.ERR_NO_EINVAL, "invalid flag \""+r.URL.Query().Get("flag")+"\"")
		return
	}

	var values map[string]string
	if err := json.NewDecoder(r.Body).Decode(&values); err != nil {
		util.HttpWriteError(w, http.StatusBadRequest, common.ERR_NO_EINVAL, "invalid metadata: "+err.Error())
		return
	}
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	metaList := make([]common.MetaData, len(names))
	for i, name := range names {
		metaList[i] = common.MetaData{Name: name, Value: values[name]}
	}

	if err := g.newClient().SetMetadata(vars["group"], vars["filename"], metaList, flag); err != nil {
		writeStorageError(w, err)
		return
	}
	util.HttpWriteJson(w, http.StatusOK, &util.HttpError{Code: 0, Msg: "success"})
}

func queryInt64(r *http.Request, name string) (int64, error) {
	s := strings.TrimSpace(r.URL.Query().Get(name))
	if s == "" {
		return 0, nil
	}
	v, err := convert.StrToInt64(s)
	if err != nil {
		return 0, errors.New("invalid parameter " + name + ": " + s)
	}
	return v, nil
}

// writeStorageError maps err to an http status.
func writeStorageError(w http.ResponseWriter, err error) {
	code := common.ErrorCode(err)
	status := http.StatusBadGateway
	switch {
	case errors.Is(err, common.InvalidArgumentErr):
		status = http.StatusBadRequest
	case errors.Is(err, common.LocalIOErr):
		status = http.StatusInternalServerError
	case errors.Is(err, common.RemoteErr) && code == common.ERR_NO_ENOENT:
		status = http.StatusNotFound
	}
	logger.Debug("request failed: ", err)
	util.HttpWriteError(w, status, code, err.Error())
}
