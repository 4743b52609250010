// Package models contains the persisted entities and the error taxonomy shared by every layer.
package models

import (
	"time"
)

// DefaultProfilePicture is the avatar reference given to new profiles.
const DefaultProfilePicture = "default.jpg"

// User is an account. It always owns exactly one Profile.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"size:64;uniqueIndex;not null" json:"username"`
	Email     string    `gorm:"size:120;uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"size:128;not null" json:"-"`
	Profile   Profile   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"profile"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Profile holds the presentational side of a user. The song of the day is free text.
type Profile struct {
	ID             uint      `gorm:"primaryKey" json:"-"`
	UserID         uint      `gorm:"uniqueIndex;not null" json:"-"`
	ProfilePicture string    `gorm:"size:255;not null" json:"profile_picture"`
	Bio            string    `gorm:"type:text" json:"bio"`
	FavoriteGenre  string    `gorm:"size:64;index" json:"favorite_genre"`
	SOTDTitle      string    `gorm:"column:sotd_title;size:200" json:"-"`
	SOTDArtist     string    `gorm:"column:sotd_artist;size:200" json:"-"`
	SongPicture    string    `gorm:"size:255" json:"-"`
	UpdatedAt      time.Time `json:"-"`
}

// SongOfTheDay is the response shape of the profile's free-text song triple.
type SongOfTheDay struct {
	Title   string `json:"title"`
	Artist  string `json:"artist"`
	Picture string `json:"picture"`
}

// SongOfTheDay returns the triple, or nil when no title is set.
func (p Profile) SongOfTheDay() *SongOfTheDay {
	if p.SOTDTitle == "" {
		return nil
	}
	return &SongOfTheDay{Title: p.SOTDTitle, Artist: p.SOTDArtist, Picture: p.SongPicture}
}

// Author is the compact identity attached to posts and comments.
type Author struct {
	ID             uint   `json:"id"`
	Username       string `json:"username"`
	ProfilePicture string `json:"profile_picture"`
}

// AuthorOf builds the compact identity of u.
func AuthorOf(u User) Author {
	pic := u.Profile.ProfilePicture
	if pic == "" {
		pic = DefaultProfilePicture
	}
	return Author{ID: u.ID, Username: u.Username, ProfilePicture: pic}
}

// UserSummary is a search or suggestion hit, annotated for the viewer.
type UserSummary struct {
	ID             uint   `json:"id"`
	Username       string `json:"username"`
	ProfilePicture string `json:"profile_picture"`
	Bio            string `json:"bio"`
	FavoriteGenre  string `json:"favorite_genre"`
	IsFollowing    bool   `json:"is_following"`
	Reason         string `json:"reason,omitempty"`
}

// SummaryOf builds a UserSummary for u.
func SummaryOf(u User) UserSummary {
	a := AuthorOf(u)
	return UserSummary{
		ID:             u.ID,
		Username:       u.Username,
		ProfilePicture: a.ProfilePicture,
		Bio:            u.Profile.Bio,
		FavoriteGenre:  u.Profile.FavoriteGenre,
	}
}
