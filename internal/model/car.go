package model

import "time"

// Car status values for the `cars.car_status` column.
const (
	CarStatusStock = "STOCK"
	CarStatusSold  = "SOLD"
)

// Workshop service statuses a car can be booked in for.
const (
	WorkshopService = "SERVICE"
	WorkshopRepair  = "REPAIR"
	WorkshopMOT     = "MOT"
)

// Valeter statuses describing the valet work requested on a car.
const (
	ValeterValet     = "VALET"
	ValeterFullValet = "FULL_VALET"
	ValeterPolish    = "POLISH"
	ValeterSafegard  = "SAFEGARD"
	ValeterMats      = "MATS"
	ValeterBootLiner = "BOOT_LINER"
	ValeterSafetyKit = "SAFETY_KIT"
)

// IsWorkshopStatus reports whether s is one of the workshop statuses.
func IsWorkshopStatus(s string) bool {
	switch s {
	case WorkshopService, WorkshopRepair, WorkshopMOT:
		return true
	}
	return false
}

// IsValeterStatus reports whether s is one of the valeter statuses.
func IsValeterStatus(s string) bool {
	switch s {
	case ValeterValet, ValeterFullValet, ValeterPolish, ValeterSafegard,
		ValeterMats, ValeterBootLiner, ValeterSafetyKit:
		return true
	}
	return false
}

// Car represents a row in the `cars` table.  Workshop and valeter statuses
// are small sets stored comma-joined on the row; the repository splits and
// joins them on read/write.
//
// Fields:
//  ID              – cars.car_id
//  Make, Model     – vehicle make and model
//  Color           – body color
//  RegNumber       – registration plate (unique)
//  ChassisNumber   – chassis/VIN (unique)
//  KeyNumber       – key cabinet slot
//  Status          – STOCK or SOLD
//  BuyerName       – set when sold
//  HandoverDate    – agreed handover to the buyer (nullable)
//  Comments        – free text
//  WorkshopStatuses, ValeterStatuses – requested work items
//  CreatedBy       – user_id of the creator
//  DateCreated, DateUpdated – row timestamps
type Car struct {
	ID               uint64
	Make             string
	Model            string
	Color            string
	RegNumber        string
	ChassisNumber    string
	KeyNumber        int
	Status           string
	BuyerName        string
	HandoverDate     *time.Time
	Comments         string
	WorkshopStatuses []string
	ValeterStatuses  []string
	CreatedBy        uint64
	DateCreated      time.Time
	DateUpdated      time.Time
}
