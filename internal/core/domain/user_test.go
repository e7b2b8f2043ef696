package domain

import (
	"errors"
	"testing"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		in      string
		want    Role
		wantErr bool
	}{
		{"admin", RoleAdmin, false},
		{"manager", RoleManager, false},
		{"user", RoleUser, false},
		{"superuser", "", true},
		{"Admin", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseRole(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidRole) {
				t.Errorf("ParseRole(%q) error = %v, want ErrInvalidRole", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseRole(%q) = %q, %v, want %q", tt.in, got, err, tt.want)
		}
	}
}

func TestMenuItemNotFoundError(t *testing.T) {
	var err error = &MenuItemNotFoundError{ID: "m42"}

	if !errors.Is(err, ErrMenuItemNotFound) {
		t.Fatal("expected MenuItemNotFoundError to match ErrMenuItemNotFound")
	}
	if err.Error() != "menu item m42 not found" {
		t.Errorf("unexpected message: %s", err.Error())
	}
}

func TestOrderClone(t *testing.T) {
	o := Order{ID: "o1", Items: []OrderLine{{MenuItemID: "m1", Quantity: 1}}}
	c := o.Clone()
	c.Items[0].Quantity = 9

	if o.Items[0].Quantity != 1 {
		t.Errorf("clone shares items with original: %d", o.Items[0].Quantity)
	}
}
