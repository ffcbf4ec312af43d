package www

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"workbenchd/station"
	"workbenchd/unit"
)

// statusEmployee is the operator part of the status response.
type statusEmployee struct {
	Name     string `json:"name"`
	Position string `json:"position"`
}

// statusUnit is the unit part of the status response.
type statusUnit struct {
	InternalID   string `json:"internal_id"`
	Name         string `json:"name"`
	Status       string `json:"status"`
	CurrentStage string `json:"current_stage,omitempty"`
}

type statusResponse struct {
	StationNumber int             `json:"station_number"`
	State         string          `json:"state"`
	Employee      *statusEmployee `json:"employee,omitempty"`
	Unit          *statusUnit     `json:"unit,omitempty"`
}

func (h *Handlers) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{
		StationNumber: h.number,
		State:         string(h.station.State()),
	}
	if e := h.station.Employee(); e != nil {
		resp.Employee = &statusEmployee{Name: e.Name, Position: e.Position}
	}
	if u := h.station.Unit(); u != nil {
		su := &statusUnit{InternalID: u.InternalID, Name: u.Name, Status: string(u.Status)}
		if st := u.CurrentStage(); st != nil {
			su.CurrentStage = st.Name
		}
		resp.Unit = su
	}
	writeJSON(w, http.StatusOK, resp)
}

type logInRequest struct {
	RFIDCardID string `json:"rfid_card_id"`
}

func (h *Handlers) handleLogIn(w http.ResponseWriter, r *http.Request) {
	var req logInRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, detailResponse{Status: "error", Detail: err.Error()})
		return
	}
	e, err := h.db.GetEmployeeByCardID(r.Context(), req.RFIDCardID)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.station.LogIn(e); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"employee": statusEmployee{Name: e.Name, Position: e.Position},
	})
}

func (h *Handlers) handleLogOut(w http.ResponseWriter, r *http.Request) {
	if err := h.station.LogOut(); err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, "employee logged out")
}

func (h *Handlers) handleListSchemas(w http.ResponseWriter, r *http.Request) {
	schemas, err := h.db.ListSchemas(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"schemas": schemas})
}

func (h *Handlers) handleGetSchema(w http.ResponseWriter, r *http.Request) {
	schema, err := h.db.GetSchemaByID(r.Context(), chi.URLParam(r, "schemaID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, schema)
}

type createUnitRequest struct {
	SchemaID string `json:"schema_id"`
}

func (h *Handlers) handleCreateUnit(w http.ResponseWriter, r *http.Request) {
	var req createUnitRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, detailResponse{Status: "error", Detail: err.Error()})
		return
	}
	schema, err := h.db.GetSchemaByID(r.Context(), req.SchemaID)
	if err != nil {
		writeError(w, err)
		return
	}
	u, err := h.station.CreateUnit(r.Context(), schema)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":           "ok",
		"unit_internal_id": u.InternalID,
	})
}

func (h *Handlers) handleGetUnit(w http.ResponseWriter, r *http.Request) {
	u, err := h.db.GetUnitByInternalID(r.Context(), chi.URLParam(r, "internalID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *Handlers) handlePendingRevision(w http.ResponseWriter, r *http.Request) {
	entries, err := h.db.GetUnitIDsAndNamesByStatus(r.Context(), unit.StatusRevision)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"units": entries})
}

func (h *Handlers) handleAssignUnit(w http.ResponseWriter, r *http.Request) {
	u, err := h.db.GetUnitByInternalID(r.Context(), chi.URLParam(r, "internalID"))
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.station.AssignUnit(u); err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, "unit assigned to the station")
}

func (h *Handlers) handleAssignComponent(w http.ResponseWriter, r *http.Request) {
	component, err := h.db.GetUnitByInternalID(r.Context(), chi.URLParam(r, "internalID"))
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.station.AssignComponentToUnit(r.Context(), component); err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, "component assigned")
}

func (h *Handlers) handleRemoveUnit(w http.ResponseWriter, r *http.Request) {
	if err := h.station.RemoveUnit(); err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, "unit removed from the station")
}

type operationRequest struct {
	AdditionalInfo map[string]string `json:"additional_info"`
	Premature      bool              `json:"premature"`
}

func (h *Handlers) handleStartOperation(w http.ResponseWriter, r *http.Request) {
	var req operationRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, detailResponse{Status: "error", Detail: err.Error()})
			return
		}
	}
	if err := h.station.StartOperation(r.Context(), req.AdditionalInfo); err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, "operation started")
}

func (h *Handlers) handleEndOperation(w http.ResponseWriter, r *http.Request) {
	var req operationRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, detailResponse{Status: "error", Detail: err.Error()})
			return
		}
	}
	if err := h.station.EndOperation(r.Context(), req.AdditionalInfo, req.Premature); err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, "operation ended")
}

func (h *Handlers) handleUploadPassport(w http.ResponseWriter, r *http.Request) {
	if err := h.station.UploadUnitPassport(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	u := h.station.Unit()
	resp := map[string]interface{}{"status": "ok"}
	if u != nil {
		resp["passport_cid"] = u.PassportCID
	}
	writeJSON(w, http.StatusOK, resp)
}

type hidEventRequest struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// handleHIDEvent routes a raw scanner event to a station operation. The RFID
// reader toggles login/logout; a barcode scan is dispatched by current state.
func (h *Handlers) handleHIDEvent(w http.ResponseWriter, r *http.Request) {
	var req hidEventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, detailResponse{Status: "error", Detail: err.Error()})
		return
	}
	log.Printf("HID event from %q: %q", req.Name, req.Value)

	switch req.Name {
	case h.hid.RFIDReader:
		h.dispatchRFID(w, r, req.Value)
	case h.hid.BarcodeReader:
		h.dispatchBarcode(w, r, req.Value)
	default:
		writeJSON(w, http.StatusBadRequest, detailResponse{Status: "error", Detail: "unknown input device: " + req.Name})
	}
}

func (h *Handlers) dispatchRFID(w http.ResponseWriter, r *http.Request, cardID string) {
	if h.station.State() != station.StateAwaitingLogin {
		h.handleLogOut(w, r)
		return
	}
	e, err := h.db.GetEmployeeByCardID(r.Context(), cardID)
	if err != nil {
		h.msg.Error("Card not registered. Access denied.")
		writeError(w, err)
		return
	}
	if err := h.station.LogIn(e); err != nil {
		writeError(w, err)
		return
	}
	writeOK(w, "employee logged in")
}

func (h *Handlers) dispatchBarcode(w http.ResponseWriter, r *http.Request, code string) {
	if !unit.IsValidInternalID(code) {
		h.msg.Warning("Scanned barcode is not a valid unit identifier.")
		writeJSON(w, http.StatusBadRequest, detailResponse{Status: "error", Detail: "invalid unit internal id: " + code})
		return
	}
	u, err := h.db.GetUnitByInternalID(r.Context(), code)
	if err != nil {
		h.msg.Error("Scanned unit is not registered.")
		writeError(w, err)
		return
	}

	switch h.station.State() {
	case station.StateGatheringComponents:
		if err := h.station.AssignComponentToUnit(r.Context(), u); err != nil {
			writeError(w, err)
			return
		}
		writeOK(w, "component assigned")
	case station.StateAuthorizedIdling:
		if err := h.station.AssignUnit(u); err != nil {
			writeError(w, err)
			return
		}
		writeOK(w, "unit assigned to the station")
	default:
		h.msg.Warning("Finish the current activity before scanning a unit.")
		writeJSON(w, http.StatusConflict, detailResponse{Status: "error", Detail: "barcode scan ignored in state " + string(h.station.State())})
	}
}
