package models

// Book is a catalog record. CoverKey holds the object-storage key of the
// uploaded cover, if any; clients get presigned URLs instead of the key.
type Book struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Author      string `json:"author"`
	Date        Date   `json:"date"`
	Description string `json:"description"`
	CoverKey    string `json:"-"`
}

// BookUpdate carries a partial update: nil fields are left unchanged.
type BookUpdate struct {
	Title       *string `json:"title"`
	Author      *string `json:"author"`
	Date        *Date   `json:"date"`
	Description *string `json:"description"`
}

// Empty reports whether the update would change nothing.
func (u *BookUpdate) Empty() bool {
	return u.Title == nil && u.Author == nil && u.Date == nil && u.Description == nil
}
