// Package storage provides the registry record model and read-only repositories.
package storage

import (
	"strconv"
	"strings"
)

// Record is one row of the vehicle registry table.
// Records are snapshots: nothing in this module writes them back.
type Record struct {
	RowID            int64  `json:"row_id"`
	Region           string `json:"region"`
	Number           string `json:"number"`
	Make             string `json:"make,omitempty"`
	Model            string `json:"model,omitempty"`
	Color            string `json:"color,omitempty"`
	ProductionDate   string `json:"production_date,omitempty"`
	RegistrationDate string `json:"registration_date,omitempty"`
	FirstName        string `json:"first_name,omitempty"`
	LastName         string `json:"last_name,omitempty"`
	Address          string `json:"address,omitempty"`
	Phone            string `json:"phone,omitempty"`
	VIN              string `json:"vin,omitempty"`
	EngineNumber     string `json:"engine_number,omitempty"`
}

// Plate returns the plate code exactly as stored (region followed by number).
func (r Record) Plate() string {
	return r.Region + r.Number
}

// OwnerName joins first and last name, or returns "" when both are blank.
func (r Record) OwnerName() string {
	first := strings.TrimSpace(r.FirstName)
	last := strings.TrimSpace(r.LastName)
	return strings.TrimSpace(first + " " + last)
}

// Token is the selection token for the record: its row identifier in decimal.
func (r Record) Token() string {
	return strconv.FormatInt(r.RowID, 10)
}

// Columns maps record attributes to registry column names.
type Columns struct {
	Region           string `yaml:"region"`
	Number           string `yaml:"number"`
	Phone            string `yaml:"phone"`
	Make             string `yaml:"make"`
	Model            string `yaml:"model"`
	Color            string `yaml:"color"`
	ProductionDate   string `yaml:"production_date"`
	RegistrationDate string `yaml:"registration_date"`
	FirstName        string `yaml:"first_name"`
	LastName         string `yaml:"last_name"`
	Address          string `yaml:"address"`
	VIN              string `yaml:"vin"`
	EngineNumber     string `yaml:"engine_number"`
}

// DefaultColumns returns the column names of the CARMDI export.
func DefaultColumns() Columns {
	return Columns{
		Region:           "CodeDesc",
		Number:           "ActualNB",
		Phone:            "TelProp",
		Make:             "MarqueDesc",
		Model:            "TypeDesc",
		Color:            "CouleurDesc",
		ProductionDate:   "PRODDATE",
		RegistrationDate: "PreMiseCirc",
		FirstName:        "Prenom",
		LastName:         "Nom",
		Address:          "Addresse",
		VIN:              "Chassis",
		EngineNumber:     "Moteur",
	}
}

// ordered returns the column names in scan order, excluding the row id.
func (c Columns) ordered() []string {
	return []string{
		c.Region, c.Number, c.Make, c.Model, c.Color,
		c.ProductionDate, c.RegistrationDate, c.FirstName, c.LastName,
		c.Address, c.Phone, c.VIN, c.EngineNumber,
	}
}

// Names returns every configured column name. Used for validation.
func (c Columns) Names() []string {
	return c.ordered()
}
