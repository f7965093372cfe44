package shop

import "strings"

// validateEmail checks the store's email rules: exactly one '@' with at
// least one character before it, a '.' in the domain part with at least
// one character between '@' and the dot, and at least one character
// after the last dot.
func validateEmail(email string) bool {
	at := strings.Index(email, "@")
	if at <= 0 || at != strings.LastIndex(email, "@") {
		return false
	}
	domain := email[at+1:]
	if dot := strings.Index(domain, "."); dot < 1 {
		return false
	}
	if last := strings.LastIndex(email, "."); last == len(email)-1 {
		return false
	}
	return true
}

// validatePhone accepts digits only, up to the column's 15-character
// cap.
func validatePhone(phone string) bool {
	if phone == "" || len(phone) > 15 {
		return false
	}
	for _, r := range phone {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func validateCustomer(c *Customer) error {
	if strings.TrimSpace(c.Name) == "" {
		return newError(KindInvalidInput, "customer name is required")
	}
	if c.Email == "" {
		return newError(KindInvalidInput, "customer email is required")
	}
	if !validateEmail(c.Email) {
		return newError(KindInvalidInput, "invalid email format: %q", c.Email)
	}
	if c.PhoneNumber == "" {
		return newError(KindInvalidInput, "customer phone number is required")
	}
	if !validatePhone(c.PhoneNumber) {
		return newError(KindInvalidInput, "invalid phone number: %q", c.PhoneNumber)
	}
	return nil
}

func validateProduct(p *Product) error {
	if strings.TrimSpace(p.Name) == "" {
		return newError(KindInvalidInput, "product name is required")
	}
	if p.Price < 0 {
		return newError(KindInvalidInput, "product price must not be negative")
	}
	return nil
}

func validateOrderLine(l *OrderLine) error {
	if l.Quantity <= 0 {
		return newError(KindInvalidInput, "order line quantity must be positive")
	}
	if l.UnitPrice < 0 {
		return newError(KindInvalidInput, "order line unit price must not be negative")
	}
	return nil
}
