/*
Package api
File: intents.go
Description:
    The presentation adapter's single entry point into the game.
    Both the REST handlers and the WebSocket hub turn requests into an
    Intent and call Dispatch, so the two transports cannot drift apart.

    Intents map 1:1 onto Session operations:
    click, buy, prestige, reset, export, import (plus "sync" to re-render).
*/

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/everforgeworks/tycoon-clicker/internal/game"
	"github.com/everforgeworks/tycoon-clicker/internal/platform/logger"
	"github.com/everforgeworks/tycoon-clicker/internal/platform/metrics"
)

var (
	ErrConfirmationRequired = errors.New("reset requires confirmation")
	ErrUnknownIntent        = errors.New("unknown intent")
)

// Intent is a user action forwarded by a client.
type Intent struct {
	Type      string          `json:"type"`                 // "click", "buy", "prestige", "reset", "export", "import", "sync"
	UpgradeID string          `json:"upgrade_id,omitempty"` // buy only
	Confirm   bool            `json:"confirm,omitempty"`    // reset only
	Data      json.RawMessage `json:"data,omitempty"`       // import only: the save blob
}

// Outcome is what an intent produced, ready to be sent back.
type Outcome struct {
	Notice string      `json:"notice,omitempty"` // Short user-facing message
	Result interface{} `json:"result,omitempty"`
}

// API binds the transports to one game session.
type API struct {
	session *game.Session
	metrics *metrics.Collector
	logger  *logger.Logger
}

func New(session *game.Session, m *metrics.Collector, log *logger.Logger) *API {
	return &API{session: session, metrics: m, logger: log}
}

// Dispatch executes one intent against the session.
func (a *API) Dispatch(in Intent) (Outcome, error) {
	switch in.Type {
	case "click":
		gained := a.session.Click()
		a.metrics.RecordClick()
		return Outcome{Result: map[string]float64{"gained": gained}}, nil

	case "buy":
		res, err := a.session.Buy(in.UpgradeID)
		if err != nil {
			a.metrics.RecordPurchase(false)
			return Outcome{Result: res}, fmt.Errorf("buy %s: %w", in.UpgradeID, err)
		}
		if !res.Known {
			// Unknown ids are a no-op, not a purchase.
			return Outcome{Result: res}, nil
		}
		a.metrics.RecordPurchase(true)
		def, _ := a.session.Catalog().Lookup(res.UpgradeID)
		return Outcome{Notice: "Bought " + def.Name, Result: res}, nil

	case "prestige":
		points, err := a.session.Prestige()
		if err != nil {
			return Outcome{}, err
		}
		a.metrics.RecordPrestige()
		return Outcome{
			Notice: fmt.Sprintf("Prestiged! +%d point(s)", points),
			Result: map[string]int{"points_awarded": points},
		}, nil

	case "reset":
		if !in.Confirm {
			return Outcome{}, ErrConfirmationRequired
		}
		a.session.ResetHard()
		return Outcome{Notice: "Game reset"}, nil

	case "export":
		blob, err := a.session.Export()
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{Result: json.RawMessage(blob)}, nil

	case "import":
		err := a.session.Import(unquoteBlob(in.Data))
		a.metrics.RecordImport(err == nil)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{Notice: "Save imported"}, nil

	case "sync":
		return Outcome{}, nil
	}
	return Outcome{}, fmt.Errorf("%w: %q", ErrUnknownIntent, in.Type)
}

// statusFor maps engine errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, game.ErrInsufficientFunds):
		return http.StatusPaymentRequired
	case errors.Is(err, game.ErrLevelTooLow):
		return http.StatusConflict
	case errors.Is(err, game.ErrInvalidSaveData),
		errors.Is(err, ErrConfirmationRequired),
		errors.Is(err, ErrUnknownIntent):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// userMessage is the rejection text shown to the player.
func userMessage(err error) string {
	switch {
	case errors.Is(err, game.ErrInsufficientFunds):
		return "Not enough coins"
	case errors.Is(err, game.ErrLevelTooLow):
		return fmt.Sprintf("Reach Level %d to prestige", game.PrestigeMinLevel)
	case errors.Is(err, game.ErrInvalidSaveData):
		return "Invalid save file"
	case errors.Is(err, ErrConfirmationRequired):
		return "Confirm the reset first"
	}
	return err.Error()
}

// unquoteBlob accepts the save either as a JSON object or as a JSON string
// holding the exported text.
func unquoteBlob(raw json.RawMessage) []byte {
	if len(raw) > 0 && raw[0] == '"' {
		var text string
		if err := json.Unmarshal(raw, &text); err == nil {
			return []byte(text)
		}
	}
	return raw
}
