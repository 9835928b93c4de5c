package validation

import (
	"errors"
	"strings"
	"testing"

	"storefront-admin/internal/models"
)

func TestStructValidLogin(t *testing.T) {
	if err := Struct(&models.LoginRequest{Email: "a@b.com", Password: "x"}); err != nil {
		t.Errorf("Struct() error = %v, want nil", err)
	}
}

func TestStructMissingLoginFields(t *testing.T) {
	err := Struct(&models.LoginRequest{Email: "a@b.com"})

	var fe FieldErrors
	if !errors.As(err, &fe) {
		t.Fatalf("error = %v, want FieldErrors", err)
	}
	if fe["password"] != "This field is required." {
		t.Errorf("password message = %q", fe["password"])
	}
	if _, ok := fe["email"]; ok {
		t.Error("email reported invalid")
	}
}

func TestStructProductForm(t *testing.T) {
	f := models.NewProductForm()
	f.Name = "Shirt"
	f.Price = "abc"
	f.Category = "Pets"

	var fe FieldErrors
	if !errors.As(Struct(f), &fe) {
		t.Fatal("expected FieldErrors")
	}
	if fe["description"] == "" {
		t.Error("missing description not reported")
	}
	if fe["price"] != "Must be a number." {
		t.Errorf("price message = %q", fe["price"])
	}
	if !strings.HasPrefix(fe["category"], "Must be one of: Men, Women, Kids") {
		t.Errorf("category message = %q", fe["category"])
	}
	if !strings.Contains(fe.Error(), "category:") {
		t.Errorf("Error() = %q", fe.Error())
	}
}
