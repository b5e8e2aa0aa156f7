package models

// Profile holds the employee-only attributes of a User. PictureKey is the
// object-storage key of the uploaded picture.
type Profile struct {
	UserID     int64
	Salary     int64
	PictureKey string
}

// Employee is a User joined with its Profile.
type Employee struct {
	User    User
	Profile Profile
}
