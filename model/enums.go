package model

import (
	"fmt"
	"strings"
)

// Status is the sale state of an apartment.
type Status string

const (
	StatusUpcoming  Status = "UPCOMING"
	StatusAvailable Status = "AVAILABLE"
	StatusReserved  Status = "RESERVED"
	StatusSold      Status = "SOLD"
)

// Statuses lists every status in dashboard order.
var Statuses = []Status{StatusUpcoming, StatusAvailable, StatusReserved, StatusSold}

// NotSoldStatuses are the statuses that still carry unsold inventory.
var NotSoldStatuses = []Status{StatusUpcoming, StatusAvailable, StatusReserved}

// IsValid reports whether s is one of the known statuses.
func (s Status) IsValid() bool {
	switch s {
	case StatusUpcoming, StatusAvailable, StatusReserved, StatusSold:
		return true
	}
	return false
}

// ParseStatus accepts the enum value in any letter case.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToUpper(strings.TrimSpace(raw)))
	if !s.IsValid() {
		return "", fmt.Errorf("unknown status %q", raw)
	}
	return s, nil
}

// SalesType is the payment arrangement of a deal.
type SalesType string

const (
	SalesTypeUnsold    SalesType = "UNSOLD"
	SalesTypeMortgage  SalesType = "MORTGAGE"
	SalesTypeCash      SalesType = "CASH"
	SalesTypeTimebased SalesType = "TIMEBASED"
)

func (s SalesType) IsValid() bool {
	switch s {
	case SalesTypeUnsold, SalesTypeMortgage, SalesTypeCash, SalesTypeTimebased:
		return true
	}
	return false
}

// ParseSalesType accepts the enum value in any letter case.
func ParseSalesType(raw string) (SalesType, error) {
	s := SalesType(strings.ToUpper(strings.TrimSpace(raw)))
	if !s.IsValid() {
		return "", fmt.Errorf("unknown sales type %q", raw)
	}
	return s, nil
}

// FileType classifies an apartment attachment.
type FileType string

const (
	FileTypeAgreement     FileType = "AGREEMENT"
	FileTypeFloorplan     FileType = "FLOORPLAN"
	FileTypeImage         FileType = "IMAGE"
	FileTypeProgressImage FileType = "PROGRESS_IMAGE"
)

func (f FileType) IsValid() bool {
	switch f {
	case FileTypeAgreement, FileTypeFloorplan, FileTypeImage, FileTypeProgressImage:
		return true
	}
	return false
}

// IsImage reports whether the file type holds pictures rather than documents.
func (f FileType) IsImage() bool {
	return f == FileTypeImage || f == FileTypeProgressImage
}

// ParseFileType accepts the enum value in any letter case.
func ParseFileType(raw string) (FileType, error) {
	f := FileType(strings.ToUpper(strings.TrimSpace(raw)))
	if !f.IsValid() {
		return "", fmt.Errorf("unknown file type %q", raw)
	}
	return f, nil
}
