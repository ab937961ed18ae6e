package response

import (
	"bytes"
	"net/http"

	kernelError "github.com/bassbeaver/gevents/error"
)

type Response interface {
	GetHttpStatus() int
	GetHeaders() http.Header
	GetBodyBytes() (*bytes.Buffer, error)
}

//--------------------

type basicResponse struct {
	httpStatus int
	headers    http.Header
}

func (r *basicResponse) HeaderSet(key, value string) {
	r.headers.Set(key, value)
}

func (r *basicResponse) GetHeaders() http.Header {
	return r.headers
}

func (r *basicResponse) GetHttpStatus() int {
	return r.httpStatus
}

func (r *basicResponse) SetHttpStatus(status int) {
	r.httpStatus = status
}

//--------------------

// Send writes responseObj to responseWriter. The body is rendered before any header is written, so
// a rendering failure still produces a complete 500 response.
func Send(responseWriter http.ResponseWriter, responseObj Response) error {
	bodyBytes, bodyError := responseObj.GetBodyBytes()
	if nil != bodyError {
		errorObj := kernelError.NewInternalServerHttpError("")
		http.Error(responseWriter, errorObj.Message(), errorObj.Status())
		return bodyError
	}

	for headerName, headerValues := range responseObj.GetHeaders() {
		for _, value := range headerValues {
			responseWriter.Header().Add(headerName, value)
		}
	}
	responseWriter.WriteHeader(responseObj.GetHttpStatus())

	_, writeError := responseWriter.Write(bodyBytes.Bytes())

	return writeError
}
