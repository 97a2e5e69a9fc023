package models

// Requests for correlation HTTP endpoints.

type ResolveRequest struct {
	Code string `query:"code" json:"code" validate:"required,max=16"`
}

type RankRequest struct {
	Target string `query:"target" json:"target" validate:"required,max=16"`
	TopN   int    `query:"top_n" json:"top_n" default:"20" validate:"gte=1,lte=200"`
}

type PairRequest struct {
	A string `query:"a" json:"a" validate:"required,max=16"`
	B string `query:"b" json:"b" validate:"required,max=16,nefield=A"`
}

type UpdateRequest struct {
	Symbol        string `json:"symbol" validate:"required,max=16"`
	Name          string `json:"name"`
	RetentionDays int    `json:"retention_days" default:"120" validate:"gte=1,lte=3650"`
}

type BatchUpdateRequest struct {
	Symbols       []SymbolEntry `json:"symbols" validate:"required,min=1,max=500,dive"`
	RetentionDays int           `json:"retention_days" default:"120" validate:"gte=1,lte=3650"`
	DelayMS       int           `json:"delay_ms" default:"500" validate:"gte=0,lte=60000"`
}
