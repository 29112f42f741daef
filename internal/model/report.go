package model

import "time"

// Party is the code and display name behind a subject or counterparty reference.
type Party struct {
	Code string
	Name string
}

// OrderDocument is what gets printed when a monthly request is submitted.
type OrderDocument struct {
	OrderNo      string
	IssuedAt     time.Time
	Request      MonthlyRequest
	Contract     Contract
	Subject      Party
	Counterparty Party
}

type RequestReportRow struct {
	Request    MonthlyRequest
	ContractNo string
	Subject    Party
}

type RequestReport struct {
	Kind  MonthlyRequestKind
	Year  int
	Month int
	Rows  []RequestReportRow
}
