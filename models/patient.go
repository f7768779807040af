package models

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"unicode"

	"github.com/spf13/cast"
)

// PatientRecord is one bundle returned by the AI-processing backend for a
// single ingested patient document.
type PatientRecord struct {
	ID         string     `json:"_id"`
	AIResponse AIResponse `json:"ai_response"`
}

// AIResponse holds everything the backend extracted from the uploaded documents.
type AIResponse struct {
	Demographics     Demographics     `json:"patient_demographics"`
	Summary          Summary          `json:"summary"`
	Vitals           Vitals           `json:"vitals"`
	Labs             []LabTest        `json:"labs"`
	LabReportSummary LabReportSummary `json:"lab_report_summary"`
	Status           Status           `json:"status"`
	Timeline         []TimelineEvent  `json:"patient_timeline"`
	Graphs           []GraphSeries    `json:"graphs"`
}

type PersonName struct {
	First string `json:"first"`
	Last  string `json:"last"`
}

// Full returns "First Last" without stray spaces when a part is missing.
func (n PersonName) Full() string {
	return strings.TrimSpace(n.First + " " + n.Last)
}

type Contact struct {
	Phone string `json:"phone"`
	Email string `json:"email,omitempty"`
}

type Address struct {
	Line1 string `json:"line1"`
	City  string `json:"city"`
	State string `json:"state"`
	Zip   string `json:"zip"`
}

type Demographics struct {
	PatientID string     `json:"patient_id"`
	Name      PersonName `json:"name"`
	DOB       string     `json:"dob"`
	Sex       string     `json:"sex"`
	Age       Quantity   `json:"age"`
	Contact   Contact    `json:"contact"`
	Address   Address    `json:"address"`
}

// DemographicsProjection is the subset of a PatientRecord shown in the
// patient list.
type DemographicsProjection struct {
	ID string `json:"_id"`
	Demographics
}

type Summary struct {
	OneLiner         string       `json:"one_liner"`
	TopProblems      []string     `json:"top_problems"`
	Allergies        []Allergy    `json:"allergies"`
	Medications      []Medication `json:"medications"`
	RecentEncounters []Encounter  `json:"recent_encounters"`
}

type Allergy struct {
	Substance string `json:"substance"`
	Reaction  string `json:"reaction"`
	NotedDate string `json:"noted_date,omitempty"`
}

type Medication struct {
	Name   string `json:"name"`
	Dosage string `json:"dosage"`
	Start  string `json:"start,omitempty"`
	Stop   string `json:"stop,omitempty"`
	Status string `json:"status"`
}

type Encounter struct {
	Date      string `json:"date"`
	Encounter string `json:"encounter"`
	Reason    string `json:"reason"`
	Outcome   string `json:"outcome,omitempty"`
}

type BloodPressure struct {
	Systolic  Quantity `json:"systolic"`
	Diastolic Quantity `json:"diastolic"`
}

type Vitals struct {
	Heartbeat     Quantity      `json:"heartbeat"`
	BloodPressure BloodPressure `json:"blood_pressure"`
	Hemoglobin    Quantity      `json:"hemoglobin"`
	SugarLevel    Quantity      `json:"sugar_level"`
	Stability     string        `json:"stability"`
	BloodType     string        `json:"blood_type"`
	Height        Quantity      `json:"height"`
	Weight        Quantity      `json:"weight"`
}

type LabValue struct {
	Date  string   `json:"date"`
	Value Quantity `json:"value"`
}

type LabTest struct {
	Name           string     `json:"test_name"`
	Unit           string     `json:"unit"`
	ReferenceRange string     `json:"reference_range"`
	Values         []LabValue `json:"values"`
}

type LabReportSummary struct {
	AbnormalResults  []LabFinding `json:"abnormal_results"`
	CriticalAlerts   []LabFinding `json:"critical_alerts"`
	LastNormalValues []LabFinding `json:"last_normal_values"`
}

// LabFinding is either a structured result or a free-text note; the backend
// emits both forms.
type LabFinding struct {
	Test  string   `json:"test,omitempty"`
	Value Quantity `json:"value,omitempty"`
	Unit  string   `json:"unit,omitempty"`
	Date  string   `json:"date,omitempty"`
	Note  string   `json:"note,omitempty"`
}

func (f *LabFinding) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = LabFinding{Note: s}
		return nil
	}
	type plain LabFinding
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		// Unknown shapes are dropped rather than failing the whole record.
		*f = LabFinding{}
		return nil
	}
	*f = LabFinding(p)
	return nil
}

type RiskScores struct {
	Readmission Quantity `json:"readmission"`
	Mortality   Quantity `json:"mortality"`
	Other       Quantity `json:"other"`
}

type Status struct {
	CurrentStatus       string     `json:"current_status"`
	RiskScores          RiskScores `json:"risk_scores"`
	ContributingFactors []string   `json:"contributing_factors"`
}

type TimelineEvent struct {
	Date     string `json:"date"`
	Category string `json:"category"`
	Title    string `json:"title"`
	Details  string `json:"details"`
}

// PatientCollection is the payload of the remote patient-collection endpoint.
// It decodes both {"patients": [...]} and a bare array.
type PatientCollection struct {
	Patients []PatientRecord `json:"patients"`
}

func (c *PatientCollection) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var records []PatientRecord
		if err := json.Unmarshal(data, &records); err != nil {
			return err
		}
		c.Patients = records
		return nil
	}
	type plain PatientCollection
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*c = PatientCollection(p)
	return nil
}

// Project builds the demographics list in collection order.
func Project(records []PatientRecord) []DemographicsProjection {
	out := make([]DemographicsProjection, 0, len(records))
	for _, r := range records {
		out = append(out, DemographicsProjection{ID: r.ID, Demographics: r.AIResponse.Demographics})
	}
	return out
}

// Quantity is a clinical value the backend may send as a number ("72"),
// a string with units ("72 bpm") or not at all. Value holds the leading
// number when one exists; Text keeps what was sent.
type Quantity struct {
	Value float64
	Text  string
	Valid bool

	// number is set when Text is a JSON number token.
	number bool
}

func NewQuantity(v float64) Quantity {
	return Quantity{Value: v, Text: strconv.FormatFloat(v, 'f', -1, 64), Valid: true, number: true}
}

func (q Quantity) String() string { return q.Text }

func (q Quantity) MarshalJSON() ([]byte, error) {
	if !q.Valid {
		if q.Text == "" {
			return []byte("null"), nil
		}
		return json.Marshal(q.Text)
	}
	if q.number {
		return json.Marshal(json.Number(q.Text))
	}
	if q.Text != "" && q.Text != strconv.FormatFloat(q.Value, 'f', -1, 64) {
		return json.Marshal(q.Text)
	}
	return json.Marshal(q.Value)
}

func (q *Quantity) UnmarshalJSON(data []byte) error {
	*q = Quantity{}
	var v any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil
	}
	switch t := v.(type) {
	case json.Number:
		f, err := t.Float64()
		if err == nil {
			*q = Quantity{Value: f, Text: t.String(), Valid: true, number: true}
		}
	case string:
		q.Text = t
		if f, ok := LeadingNumber(t); ok {
			q.Value, q.Valid = f, true
		}
	}
	return nil
}

// LeadingNumber parses the number at the start of s ("132/84" → 132,
// "98.6 F" → 98.6).
func LeadingNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if f, err := cast.ToFloat64E(s); err == nil {
		return f, true
	}
	end := 0
	for i, r := range s {
		if unicode.IsDigit(r) || r == '.' || ((r == '-' || r == '+') && i == 0) {
			end = i + 1
			continue
		}
		break
	}
	if end == 0 {
		return 0, false
	}
	f, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
