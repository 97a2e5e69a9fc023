package models

import (
	"encoding/json"
	"math"
)

// Coefficient is a correlation value that may be undefined because of
// insufficient data. An undefined coefficient has Value 0.
type Coefficient struct {
	Value   float64
	Defined bool
}

// Undefined is the insufficient-data marker.
var Undefined = Coefficient{}

// DefinedCoefficient wraps a computed value.
func DefinedCoefficient(v float64) Coefficient {
	return Coefficient{Value: v, Defined: true}
}

// Float returns the value used for ranking and display (0 when undefined).
func (c Coefficient) Float() float64 {
	if !c.Defined {
		return 0
	}
	return c.Value
}

func (c Coefficient) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Value    float64 `json:"value"`
		Defined  bool    `json:"defined"`
		Strength string  `json:"strength"`
	}{c.Float(), c.Defined, ClassifyStrength(c.Float())})
}

func (c *Coefficient) UnmarshalJSON(b []byte) error {
	var raw struct {
		Value   float64 `json:"value"`
		Defined bool    `json:"defined"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	c.Value, c.Defined = raw.Value, raw.Defined
	return nil
}

// WindowCoefficient is the coefficient over one trailing window.
type WindowCoefficient struct {
	Days        int         `json:"days"`
	Coefficient Coefficient `json:"coefficient"`
}

// CorrelationResult pairs a symbol with a peer over several windows.
type CorrelationResult struct {
	Symbol     string              `json:"symbol"`
	Name       string              `json:"name"`
	PeerSymbol string              `json:"peer_symbol"`
	PeerName   string              `json:"peer_name"`
	Windows    []WindowCoefficient `json:"windows"`
}

// Window returns the coefficient for the given window length.
func (r CorrelationResult) Window(days int) (Coefficient, bool) {
	for _, w := range r.Windows {
		if w.Days == days {
			return w.Coefficient, true
		}
	}
	return Undefined, false
}

// AllUndefined reports whether no window produced a value.
func (r CorrelationResult) AllUndefined() bool {
	for _, w := range r.Windows {
		if w.Coefficient.Defined {
			return false
		}
	}
	return true
}

// ClassifyStrength labels a coefficient by magnitude band and sign.
func ClassifyStrength(c float64) string {
	var band string
	switch a := math.Abs(c); {
	case a >= 0.9:
		band = "very strong"
	case a >= 0.7:
		band = "strong"
	case a >= 0.5:
		band = "moderate"
	case a >= 0.3:
		band = "weak"
	default:
		band = "very weak"
	}
	if c >= 0 {
		return band + " positive"
	}
	return band + " negative"
}
