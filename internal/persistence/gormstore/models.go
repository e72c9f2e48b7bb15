package gormstore

import "time"

type roomModel struct {
	ID        string   `gorm:"primaryKey;size:64"`
	Name      string   `gorm:"not null"`
	Type      string   `gorm:"not null"`
	Capacity  int      `gorm:"not null;check:capacity > 0"`
	Features  []string `gorm:"serializer:json;type:text"`
	CreatedAt time.Time
}

func (roomModel) TableName() string { return "rooms" }

type bookingModel struct {
	ID           string `gorm:"primaryKey;size:64"`
	RoomID       string `gorm:"not null;size:64;index:idx_bookings_room_date,priority:1"`
	RoomName     string `gorm:"not null"`
	Date         string `gorm:"not null;size:10;index:idx_bookings_room_date,priority:2"`
	Slot         int    `gorm:"not null"`
	Duration     int    `gorm:"not null"`
	Name         string `gorm:"not null"`
	Email        string `gorm:"not null;index"`
	RequesterUID string `gorm:"not null"`
	Purpose      string `gorm:"not null"`
	Status       string `gorm:"not null;size:16"`
	CreatedAt    time.Time
}

func (bookingModel) TableName() string { return "bookings" }

type adminModel struct {
	ID        string `gorm:"primaryKey;size:64"`
	UID       string `gorm:"not null;index"`
	Email     string `gorm:"not null"`
	Name      string `gorm:"not null"`
	CreatedAt time.Time
}

func (adminModel) TableName() string { return "admins" }

type userModel struct {
	ID           string `gorm:"primaryKey;size:64"`
	Email        string `gorm:"not null;uniqueIndex"`
	PasswordHash string `gorm:"not null"`
	CreatedAt    time.Time
}

func (userModel) TableName() string { return "users" }
