package models

// DirectoryUser is a user entry found in the directory.
type DirectoryUser struct {
	ID          string `json:"id"`
	DN          string `json:"dn"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name,omitempty"`
	Email       string `json:"email,omitempty"`
}

// GroupRef identifies a directory group. ID is the objectGUID in canonical
// UUID form; DN is used to follow nested membership.
type GroupRef struct {
	ID   string `json:"id"`
	DN   string `json:"dn"`
	Name string `json:"name"`
}
