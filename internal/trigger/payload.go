package trigger

import (
	"github.com/go-playground/validator/v10"

	"github.com/dgnsrekt/tv_volume_dashboard/internal/chart"
	"github.com/dgnsrekt/tv_volume_dashboard/internal/types"
)

// SourceClick is the only trigger source the dashboard produces.
const SourceClick = "click"

var validate = validator.New()

// Payload is what the automation endpoint receives for one clicked bar.
// AuthToken travels in the body as well as the Authorization header so the
// endpoint can fetch the stored credentials itself.
type Payload struct {
	Symbol         string  `json:"symbol" validate:"required"`
	Timeframe      string  `json:"timeframe" validate:"required"`
	Price          string  `json:"price" validate:"required"`
	Volume         float64 `json:"volume" validate:"required"`
	Timestamp      string  `json:"timestamp" validate:"required"`
	Source         string  `json:"source" validate:"eq=click"`
	TrendlineColor string  `json:"trendline_color" validate:"omitempty,hexcolor"`
	StartTime      string  `json:"start_time"`
	EndTime        string  `json:"end_time"`
	AuthToken      string  `json:"jwt_token,omitempty" validate:"required"`
}

// NewPayload builds and validates the payload for a mapped click.
func NewPayload(p chart.Point, c Click, token string) (Payload, error) {
	payload := Payload{
		Symbol:         c.Meta.Symbol,
		Timeframe:      c.Meta.Timeframe,
		Price:          p.PriceRaw,
		Volume:         p.Volume,
		Timestamp:      p.TimestampRaw,
		Source:         SourceClick,
		TrendlineColor: c.TrendlineColor,
		StartTime:      c.StartTime,
		EndTime:        c.EndTime,
		AuthToken:      token,
	}
	if err := validate.Struct(payload); err != nil {
		return Payload{}, types.NewError(types.CodeInvalidClick, "trigger payload incomplete", err)
	}
	return payload, nil
}

// Redacted returns a copy without the token, for responses and events.
func (p Payload) Redacted() Payload {
	p.AuthToken = ""
	return p
}
