/*
Package api
File: handlers.go
Description:
    Contains the HTTP handlers for the REST API.
    These functions decode the JSON request, turn it into an Intent,
    run it through Dispatch and write the result plus a fresh View.

    Key Responsibilities:
    - Input Validation (Is the JSON valid? Is the body a sane size?)
    - Error Mapping (engine errors -> HTTP status codes)
    - Save download/upload for export and import
*/

package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/everforgeworks/tycoon-clicker/internal/game"
)

// maxSaveBytes bounds uploaded saves.
const maxSaveBytes = 1 << 20

// Request DTOs (Data Transfer Objects)
// These structs define exactly what we expect the client to send us.

type BuyRequest struct {
	UpgradeID string `json:"upgrade_id"`
}

type ResetRequest struct {
	Confirm bool `json:"confirm"`
}

// IntentResponse is returned by every mutating endpoint.
type IntentResponse struct {
	Outcome
	State game.View `json:"state"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), errorResponse{Error: err.Error(), Message: userMessage(err)})
}

// run dispatches in and writes the outcome together with the new state.
func (a *API) run(w http.ResponseWriter, in Intent) {
	out, err := a.Dispatch(in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, IntentResponse{Outcome: out, State: a.session.View()})
}

// HandleGetState returns the render snapshot.
func (a *API) HandleGetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.session.View())
}

// HandleGetUpgrades returns the static catalog.
func (a *API) HandleGetUpgrades(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.session.Catalog().All())
}

// HandleClick grants one click.
func (a *API) HandleClick(w http.ResponseWriter, r *http.Request) {
	a.run(w, Intent{Type: "click"})
}

// HandleBuy purchases one unit of an upgrade.
func (a *API) HandleBuy(w http.ResponseWriter, r *http.Request) {
	var req BuyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	a.run(w, Intent{Type: "buy", UpgradeID: req.UpgradeID})
}

// HandlePrestige trades levels for prestige points.
func (a *API) HandlePrestige(w http.ResponseWriter, r *http.Request) {
	a.run(w, Intent{Type: "prestige"})
}

// HandleReset wipes the game. The body must carry {"confirm": true}.
func (a *API) HandleReset(w http.ResponseWriter, r *http.Request) {
	var req ResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	a.run(w, Intent{Type: "reset", Confirm: req.Confirm})
}

// HandleExport downloads the save as tycoon-save.json.
func (a *API) HandleExport(w http.ResponseWriter, r *http.Request) {
	blob, err := a.session.Export()
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="tycoon-save.json"`)
	w.Write(blob)
}

// HandleImport replaces the game with the uploaded save (raw request body).
func (a *API) HandleImport(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxSaveBytes+1))
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	if len(raw) > maxSaveBytes {
		http.Error(w, "Save too large", http.StatusRequestEntityTooLarge)
		return
	}
	a.run(w, Intent{Type: "import", Data: raw})
}
