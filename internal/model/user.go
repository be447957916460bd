package model

import (
    "fmt"
    "time"
)

// Role is the closed set of account roles.  Values are stored verbatim in
// the users.role column and in the "role" claim of access tokens.
type Role string

const (
    RoleNormalUser Role = "normal_user"
    RoleStoreOwner Role = "store_owner"
    RoleAdmin      Role = "admin"
)

// ParseRole converts a raw string into a Role.  Unknown values are
// rejected so a typo in the database or a forged claim never matches a gate.
func ParseRole(s string) (Role, error) {
    switch r := Role(s); r {
    case RoleNormalUser, RoleStoreOwner, RoleAdmin:
        return r, nil
    }
    return "", fmt.Errorf("unknown role %q", s)
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
    _, err := ParseRole(string(r))
    return err == nil
}

func (r Role) String() string { return string(r) }

// User represents an application user record as stored in the
// `users` table.  PasswordHash is never serialized.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Name         – display name.
//  Email        – unique, normalized (trimmed, lower-cased) email address.
//  PasswordHash – bcrypt hashed password.
//  Address      – postal address.
//  Role         – account role, fixed at registration.
//  CreatedAt    – timestamp of creation.
type User struct {
    ID           uint64    `json:"id"`
    Name         string    `json:"name"`
    Email        string    `json:"email"`
    PasswordHash string    `json:"-"`
    Address      string    `json:"address"`
    Role         Role      `json:"role"`
    CreatedAt    time.Time `json:"created_at"`
}
