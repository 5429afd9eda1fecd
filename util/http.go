package util

import (
	"net/http"

	"github.com/hetianyi/gox/logger"
	json "github.com/json-iterator/go"
)

// HttpError is the body of every gateway error response.
type HttpError struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

// HttpWriteJson writes v as a json response.
func HttpWriteJson(writer http.ResponseWriter, statusCode int, v interface{}) {
	bs, err := json.Marshal(v)
	if err != nil {
		logger.Error("error marshal response: ", err)
		statusCode = http.StatusInternalServerError
		bs = []byte(`{"code":5,"msg":"error marshal response"}`)
	}
	writer.Header().Set("Content-Type", "application/json; charset=utf-8")
	writer.WriteHeader(statusCode)
	writer.Write(bs)
}

// HttpWriteError writes an error response.
func HttpWriteError(writer http.ResponseWriter, statusCode int, code byte, message string) {
	HttpWriteJson(writer, statusCode, &HttpError{Code: int(code), Msg: message})
}
