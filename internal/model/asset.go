package model

import (
	"fmt"
	"time"
)

// Status is the lifecycle state of an asset.
type Status string

// Asset statuses.
const (
	StatusAvailable      Status = "available"
	StatusAssigned       Status = "assigned"
	StatusBroken         Status = "broken"
	StatusLost           Status = "lost"
	StatusRepair         Status = "repair"
	StatusPendingVendor  Status = "pending_vendor"
	StatusPendingRecheck Status = "pending_recheck"
)

// Statuses lists every valid status in display order.
var Statuses = []Status{
	StatusAvailable,
	StatusAssigned,
	StatusBroken,
	StatusLost,
	StatusRepair,
	StatusPendingVendor,
	StatusPendingRecheck,
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// Label returns the human-readable status used in exports.
func (s Status) Label() string {
	switch s {
	case StatusAvailable:
		return "Available"
	case StatusAssigned:
		return "Assigned"
	case StatusBroken:
		return "Broken"
	case StatusLost:
		return "Lost"
	case StatusRepair:
		return "Repair"
	case StatusPendingVendor:
		return "Pending Vendor"
	case StatusPendingRecheck:
		return "Pending Recheck"
	default:
		return string(s)
	}
}

// Category is the equipment class of an asset.
type Category string

// Asset categories.
const (
	CategoryLaptop     Category = "laptop"
	CategoryDesktop    Category = "desktop"
	CategoryMonitor    Category = "monitor"
	CategoryMobile     Category = "mobile"
	CategoryTablet     Category = "tablet"
	CategoryPeripheral Category = "peripheral"
	CategoryNetwork    Category = "network"
	CategoryOther      Category = "other"
)

// Categories lists every valid category.
var Categories = []Category{
	CategoryLaptop,
	CategoryDesktop,
	CategoryMonitor,
	CategoryMobile,
	CategoryTablet,
	CategoryPeripheral,
	CategoryNetwork,
	CategoryOther,
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// CentralPrefix prefixes the holder name of centrally held assets.
const CentralPrefix = "Central - "

// CustodyKind says who holds an asset.
type CustodyKind int

const (
	CustodyNone CustodyKind = iota
	CustodyPerson
	CustodyCentral
)

func (k CustodyKind) String() string {
	switch k {
	case CustodyPerson:
		return "person"
	case CustodyCentral:
		return "central"
	default:
		return "none"
	}
}

// Custody groups the holder fields of an asset. They are always set together.
type Custody struct {
	AssignedTo   string     `json:"assigned_to"`
	EmployeeID   string     `json:"employee_id,omitempty"`
	Department   string     `json:"department,omitempty"`
	Position     string     `json:"position,omitempty"`
	AssignedDate *time.Time `json:"assigned_date,omitempty"`
	IsCentral    bool       `json:"is_central"`
	Location     string     `json:"location,omitempty"`
}

// PersonCustody returns custody for an asset handed to an employee.
func PersonCustody(name, employeeID, department, position string, at time.Time) Custody {
	return Custody{
		AssignedTo:   name,
		EmployeeID:   employeeID,
		Department:   department,
		Position:     position,
		AssignedDate: &at,
	}
}

// CentralCustody returns custody for an asset kept at a location pool.
func CentralCustody(location string, at time.Time) Custody {
	return Custody{
		AssignedTo:   CentralPrefix + location,
		AssignedDate: &at,
		IsCentral:    true,
		Location:     location,
	}
}

// Kind derives the custody kind from the populated fields.
func (c Custody) Kind() CustodyKind {
	switch {
	case c.IsCentral:
		return CustodyCentral
	case c.AssignedTo != "":
		return CustodyPerson
	default:
		return CustodyNone
	}
}

// Asset is one physical item.
type Asset struct {
	ID           string   `json:"id"`
	SerialNumber string   `json:"serial_number"`
	Name         string   `json:"name"`
	Brand        string   `json:"brand"`
	Category     Category `json:"category"`
	Notes        string   `json:"notes,omitempty"`
	PhoneNumber  string   `json:"phone_number,omitempty"`
	IsRental     bool     `json:"is_rental"`
	Status       Status   `json:"status"`
	Custody

	ImageMime string `json:"image_mime,omitempty"`

	IsDeleted    bool       `json:"is_deleted"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
	DeletedBy    string     `json:"deleted_by,omitempty"`
	DeleteReason string     `json:"delete_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CustodyKind returns who currently holds the asset.
func (a *Asset) CustodyKind() CustodyKind {
	return a.Custody.Kind()
}

// ValidateCustody checks that status and holder fields agree: an asset is
// assigned exactly when it has a holder, and the holder is either an employee
// or a central location, never both.
func (a *Asset) ValidateCustody() error {
	c := a.Custody
	if a.Status == StatusAssigned {
		if c.AssignedTo == "" {
			return fmt.Errorf("assigned asset has no holder")
		}
		if c.IsCentral {
			if c.EmployeeID != "" || c.Department != "" || c.Position != "" {
				return fmt.Errorf("central asset carries employee fields")
			}
			if c.Location == "" {
				return fmt.Errorf("central asset has no location")
			}
		} else if c.EmployeeID == "" {
			return fmt.Errorf("person holder has no employee id")
		}
		return nil
	}
	if c.AssignedTo != "" || c.EmployeeID != "" || c.Department != "" || c.Position != "" || c.IsCentral || c.Location != "" {
		return fmt.Errorf("asset with status %q still has a holder", a.Status)
	}
	return nil
}
