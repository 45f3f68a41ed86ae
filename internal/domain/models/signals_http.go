package models

// Query parameters for the snapshot HTTP endpoints.

type HistoryRequest struct {
	N int `query:"n" json:"n" default:"12" validate:"gte=1,lte=240"`
}

type TableRequest struct {
	Freq  string `query:"freq" json:"freq" default:"monthly" validate:"oneof=daily monthly"`
	Limit int    `query:"limit" json:"limit" default:"120" validate:"gte=1,lte=20000"`
}
