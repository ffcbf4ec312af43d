// Package www is the station's HTTP surface: a JSON API over the station
// operations plus a server-sent notification feed.
package www

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"workbenchd/config"
	"workbenchd/employee"
	"workbenchd/messenger"
	"workbenchd/station"
	"workbenchd/store"
	"workbenchd/unit"
)

// Store is the document-store surface the handlers read from. Satisfied by
// *store.DB.
type Store interface {
	GetEmployeeByCardID(ctx context.Context, cardID string) (*employee.Employee, error)
	GetSchemaByID(ctx context.Context, schemaID string) (*unit.Schema, error)
	ListSchemas(ctx context.Context) ([]unit.Schema, error)
	GetUnitByInternalID(ctx context.Context, internalID string) (*unit.Unit, error)
	GetUnitIDsAndNamesByStatus(ctx context.Context, status unit.Status) ([]store.UnitListEntry, error)
}

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	number  int
	station *station.Station
	db      Store
	msg     *messenger.Hub
	hid     config.HIDConfig
}

// NewRouter creates the chi router over the given station.
func NewRouter(number int, st *station.Station, db Store, msg *messenger.Hub, hid config.HIDConfig) http.Handler {
	h := &Handlers{
		number:  number,
		station: st,
		db:      db,
		msg:     msg,
		hid:     hid,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	r.Get("/status", h.handleStatus)
	r.Get("/notifications", h.handleNotificationFeed)

	r.Route("/employee", func(r chi.Router) {
		r.Post("/log-in", h.handleLogIn)
		r.Post("/log-out", h.handleLogOut)
	})

	r.Route("/schemas", func(r chi.Router) {
		r.Get("/", h.handleListSchemas)
		r.Get("/{schemaID}", h.handleGetSchema)
	})

	r.Route("/unit", func(r chi.Router) {
		r.Post("/new", h.handleCreateUnit)
		r.Get("/pending-revision", h.handlePendingRevision)
		r.Post("/remove", h.handleRemoveUnit)
		r.Post("/upload-passport", h.handleUploadPassport)
		r.Get("/{internalID}", h.handleGetUnit)
		r.Post("/{internalID}/assign", h.handleAssignUnit)
		r.Post("/{internalID}/assign-component", h.handleAssignComponent)
	})

	r.Route("/operation", func(r chi.Router) {
		r.Post("/start", h.handleStartOperation)
		r.Post("/end", h.handleEndOperation)
	})

	r.Post("/hid-event", h.handleHIDEvent)

	return r
}
