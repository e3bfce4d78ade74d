package syncqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/form/v4"
	"github.com/gorilla/mux"

	"github.com/MarcGrol/syncqueue/lib/mycontext"
	"github.com/MarcGrol/syncqueue/lib/myerrors"
	"github.com/MarcGrol/syncqueue/lib/myhttp"
	"github.com/MarcGrol/syncqueue/lib/mylog"
)

var formDecoder = form.NewDecoder()

type webService struct {
	logger  mylog.Logger
	service *Service
}

// Use dependency injection to isolate the infrastructure and easy testing
func NewWebService(service *Service) *webService {
	return &webService{
		logger:  mylog.New("syncqueueweb"),
		service: service,
	}
}

func (ws *webService) RegisterEndpoints(c context.Context, router *mux.Router) {
	router.HandleFunc("/api/sync/queue", ws.enqueuePage()).Methods("POST")
	router.HandleFunc("/api/sync/queue", ws.listQueuePage()).Methods("GET")
	router.HandleFunc("/api/sync/status", ws.statusPage()).Methods("GET")
}

func (ws *webService) enqueuePage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(ws.logger)

		req, err := parseEnqueueRequest(r)
		if err != nil {
			errorWriter.WriteError(c, w, 1, myerrors.NewInvalidInputError(fmt.Errorf("error parsing request: %s", err)))
			return
		}

		queued, err := ws.service.Enqueue(c, req)
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, queued)
	}
}

func (ws *webService) listQueuePage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(ws.logger)

		requests, err := ws.service.Pending(c)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, struct {
			Requests []QueuedRequest `json:"requests"`
		}{
			Requests: requests,
		})
	}
}

func (ws *webService) statusPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(ws.logger)

		errorWriter.Write(c, w, http.StatusOK, ws.service.Status(c))
	}
}

func parseEnqueueRequest(r *http.Request) (EnqueueRequest, error) {
	contentType := r.Header.Get("Content-Type")

	if strings.HasPrefix(contentType, "application/x-www-form-urlencoded") {
		err := r.ParseForm()
		if err != nil {
			return EnqueueRequest{}, fmt.Errorf("error parsing form: %s", err)
		}

		formReq := struct {
			URL    string `form:"url"`
			Method string `form:"method"`
			Body   string `form:"body"`
		}{}
		err = formDecoder.Decode(&formReq, r.Form)
		if err != nil {
			return EnqueueRequest{}, fmt.Errorf("error decoding form: %s", err)
		}

		req := EnqueueRequest{
			URL:    formReq.URL,
			Method: formReq.Method,
		}
		if formReq.Body != "" {
			req.Body = json.RawMessage(formReq.Body)
		}
		return req, nil
	}

	req := EnqueueRequest{}
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		return EnqueueRequest{}, fmt.Errorf("error decoding json: %s", err)
	}
	return req, nil
}
