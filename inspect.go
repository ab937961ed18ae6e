package gevents

import (
	"log/slog"
	"net/http"

	kernelError "github.com/bassbeaver/gevents/error"
	"github.com/bassbeaver/gevents/event_bus/listener"
	"github.com/bassbeaver/gevents/response"
	"github.com/husobee/vestigo"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type TagSnapshot struct {
	Tag       string          `json:"tag" yaml:"tag"`
	Listeners []listener.Info `json:"listeners" yaml:"listeners"`
}

// Snapshot is the registry state exposed by the inspection API and the describe command.
type Snapshot struct {
	Pending []TagSnapshot `json:"pending" yaml:"pending"`
	Done    []string      `json:"done" yaml:"done"`
}

type tagView struct {
	Tag       string          `json:"tag"`
	Done      bool            `json:"done"`
	Listeners []listener.Info `json:"listeners"`
}

func (k *Kernel) Snapshot() Snapshot {
	tags := k.registry.Tags()

	snapshot := Snapshot{
		Pending: make([]TagSnapshot, 0, len(tags)),
		Done:    k.registry.DoneTags(),
	}
	for _, tag := range tags {
		snapshot.Pending = append(snapshot.Pending, TagSnapshot{
			Tag:       tag,
			Listeners: k.registry.Listeners(tag),
		})
	}

	return snapshot
}

// Handler returns the read-only inspection API. It never triggers or changes a tag.
func (k *Kernel) Handler() http.Handler {
	router := vestigo.NewRouter()
	router.Add(http.MethodGet, "/events", k.handleEvents)
	router.Add(http.MethodGet, "/events/:tag", k.handleEvent)
	router.Add(http.MethodGet, "/healthz", k.handleHealth)
	router.Add(
		http.MethodGet,
		"/metrics",
		promhttp.HandlerFor(k.metricsRegistry, promhttp.HandlerOpts{EnableOpenMetrics: true}).ServeHTTP,
	)

	// vestigo keeps one process-wide not-found handler and only the first call sets it, so the
	// handler must not depend on this kernel.
	vestigo.CustomNotFoundHandlerFunc(handleNotFound)

	return router
}

func (k *Kernel) handleEvents(responseWriter http.ResponseWriter, requestObj *http.Request) {
	k.send(responseWriter, requestObj, response.NewJsonResponse(k.Snapshot()))
}

func (k *Kernel) handleEvent(responseWriter http.ResponseWriter, requestObj *http.Request) {
	tag := vestigo.Param(requestObj, "tag")

	k.send(responseWriter, requestObj, response.NewJsonResponse(tagView{
		Tag:       tag,
		Done:      k.registry.IsDone(tag),
		Listeners: k.registry.Listeners(tag),
	}))
}

func (k *Kernel) handleHealth(responseWriter http.ResponseWriter, requestObj *http.Request) {
	k.send(responseWriter, requestObj, response.NewJsonResponse(map[string]string{"status": "ok"}))
}

func handleNotFound(responseWriter http.ResponseWriter, requestObj *http.Request) {
	errorObj := kernelError.NewNotFoundHttpError()
	sendResponse(slog.Default(), responseWriter, requestObj, response.NewJsonErrorResponse(errorObj.Status(), errorObj.Message()))
}

func (k *Kernel) send(responseWriter http.ResponseWriter, requestObj *http.Request, responseObj response.Response) {
	sendResponse(k.logger, responseWriter, requestObj, responseObj)
}

func sendResponse(logger *slog.Logger, responseWriter http.ResponseWriter, requestObj *http.Request, responseObj response.Response) {
	if sendError := response.Send(responseWriter, responseObj); nil != sendError {
		logger.Warn("failed to send inspection response", "path", requestObj.URL.Path, "error", sendError)
	}
}
