package subscriptions

import (
	"encoding/json"
	"fmt"

	"github.com/snapbrief/snapbrief/internal/domain"
)

// UpdateFields carries the narrowed field set an update forwards to storage.
// A nil pointer means the caller did not supply the field; it must never be
// defaulted or cleared.
type UpdateFields struct {
	Name           *string
	Email          *string
	Phone          *string
	Topics         *[]string
	Companies      *[]string
	Schedule       *domain.Schedule
	DeliveryMethod *domain.DeliveryMethod
	WebhookURL     *string
	IsActive       *bool
}

// IsEmpty reports whether no allow-listed field was supplied.
func (f UpdateFields) IsEmpty() bool {
	return f.Name == nil && f.Email == nil && f.Phone == nil &&
		f.Topics == nil && f.Companies == nil && f.Schedule == nil &&
		f.DeliveryMethod == nil && f.WebhookURL == nil && f.IsActive == nil
}

// FilterUpdate builds the update set from an arbitrary partial payload.
// Only keys in the fixed allow-list are copied, and only when the payload
// explicitly supplies them; everything else is dropped. The allow-list is
// enumerated here rather than derived by reflection so the contract stays
// auditable.
func FilterUpdate(payload map[string]json.RawMessage) (UpdateFields, error) {
	var fields UpdateFields

	if err := assign(payload, "name", &fields.Name); err != nil {
		return UpdateFields{}, err
	}
	if err := assign(payload, "email", &fields.Email); err != nil {
		return UpdateFields{}, err
	}
	if err := assign(payload, "phone", &fields.Phone); err != nil {
		return UpdateFields{}, err
	}
	if err := assign(payload, "topics", &fields.Topics); err != nil {
		return UpdateFields{}, err
	}
	if err := assign(payload, "companies", &fields.Companies); err != nil {
		return UpdateFields{}, err
	}
	if err := assign(payload, "schedule", &fields.Schedule); err != nil {
		return UpdateFields{}, err
	}
	if err := assign(payload, "deliveryMethod", &fields.DeliveryMethod); err != nil {
		return UpdateFields{}, err
	}
	if err := assign(payload, "webhookUrl", &fields.WebhookURL); err != nil {
		return UpdateFields{}, err
	}
	if err := assign(payload, "isActive", &fields.IsActive); err != nil {
		return UpdateFields{}, err
	}

	if fields.Schedule != nil {
		if err := ValidateSchedule(*fields.Schedule); err != nil {
			return UpdateFields{}, err
		}
	}
	if fields.DeliveryMethod != nil && !fields.DeliveryMethod.IsValid() {
		return UpdateFields{}, fmt.Errorf("%w: deliveryMethod %q", ErrFieldInvalid, *fields.DeliveryMethod)
	}

	return fields, nil
}

// assign decodes payload[key] into *dst when the key is present.
func assign[T any](payload map[string]json.RawMessage, key string, dst **T) error {
	raw, ok := payload[key]
	if !ok {
		return nil
	}
	v := new(T)
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %s", ErrFieldInvalid, key)
	}
	*dst = v
	return nil
}
