package models

import (
	"time"

	"github.com/google/uuid"
)

// Quote описывает смету мастера на заявку клиента.
// Смета либо прямая (разбивка стоимости), либо требует осмотра:
// тогда указывается только стоимость осмотра, а после осмотра
// мастер присылает уточнённую прямую смету с флагом IsRevised.
type Quote struct {
	ID                 uuid.UUID  `db:"id" json:"id"`
	RequestID          uuid.UUID  `db:"request_id" json:"request_id"`
	FixerID            uuid.UUID  `db:"fixer_id" json:"fixer_id"`
	Type               string     `db:"type" json:"type"`
	LaborCost          *float64   `db:"labor_cost" json:"labor_cost,omitempty"`
	MaterialCost       *float64   `db:"material_cost" json:"material_cost,omitempty"`
	OtherCosts         *float64   `db:"other_costs" json:"other_costs,omitempty"`
	InspectionFee      *float64   `db:"inspection_fee" json:"inspection_fee,omitempty"`
	DownPaymentPercent *float64   `db:"down_payment_percent" json:"down_payment_percent,omitempty"`
	DownPaymentReason  *string    `db:"down_payment_reason" json:"down_payment_reason,omitempty"`
	IsRevised          bool       `db:"is_revised" json:"is_revised"`
	IsAccepted         bool       `db:"is_accepted" json:"is_accepted"`
	RevisionsAllowed   int        `db:"revisions_allowed" json:"revisions_allowed"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updated_at"`
}

// Total возвращает полную стоимость прямой сметы.
// Для сметы с осмотром возвращает стоимость осмотра.
func (q *Quote) Total() float64 {
	if q.Type == QuoteTypeInspectionRequired {
		if q.InspectionFee != nil {
			return *q.InspectionFee
		}
		return 0
	}

	var total float64
	if q.LaborCost != nil {
		total += *q.LaborCost
	}
	if q.MaterialCost != nil {
		total += *q.MaterialCost
	}
	if q.OtherCosts != nil {
		total += *q.OtherCosts
	}
	return total
}
