package response

import (
	"bytes"
	"encoding/json"
	"net/http"
)

type JsonResponse struct {
	basicResponse
	Body interface{}
}

func (r *JsonResponse) GetBodyBytes() (*bytes.Buffer, error) {
	resultBytes, marshalError := json.Marshal(r.Body)
	if nil != marshalError {
		return nil, marshalError
	}

	return bytes.NewBuffer(append(resultBytes, '\n')), nil
}

//--------------------

func NewJsonResponse(body interface{}) *JsonResponse {
	r := &JsonResponse{
		basicResponse: basicResponse{
			httpStatus: http.StatusOK,
			headers:    make(http.Header),
		},
		Body: body,
	}
	r.HeaderSet("Content-Type", "application/json")

	return r
}

// NewJsonErrorResponse renders {"error": message} with the given status.
func NewJsonErrorResponse(status int, message string) *JsonResponse {
	r := NewJsonResponse(map[string]string{"error": message})
	r.SetHttpStatus(status)

	return r
}
