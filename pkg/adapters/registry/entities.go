package registry

import (
	"fmt"

	"github.com/aretw0/sluice/pkg/ports"
	"github.com/mitchellh/mapstructure"
)

// Registrant is the decoded shape of a partner record. Only the fields the
// adaptor fetches are mapped; anything else in the raw record is ignored.
type Registrant struct {
	ID           int64  `mapstructure:"id"`
	Name         string `mapstructure:"name"`
	RegistrantID string `mapstructure:"registrant_id"`
	Phone        string `mapstructure:"phone"`
	Email        string `mapstructure:"email"`
	IsGroup      bool   `mapstructure:"is_group"`
}

// Program is the decoded shape of a program record.
type Program struct {
	ID    int64  `mapstructure:"id"`
	Name  string `mapstructure:"name"`
	State string `mapstructure:"state"`
}

// DecodeRegistrant converts a raw partner record into a Registrant.
// Decoding is weakly typed: backends deliver numbers as float64 and
// optional fields as false.
func DecodeRegistrant(rec ports.Record) (Registrant, error) {
	var out Registrant
	if err := decode(rec, &out); err != nil {
		return Registrant{}, fmt.Errorf("decode registrant: %w", err)
	}
	return out, nil
}

// DecodePrograms converts raw program records into Programs.
func DecodePrograms(records []ports.Record) ([]Program, error) {
	out := make([]Program, 0, len(records))
	for _, rec := range records {
		var p Program
		if err := decode(rec, &p); err != nil {
			return nil, fmt.Errorf("decode program: %w", err)
		}
		out = append(out, p)
	}
	return out, nil
}

func decode(rec ports.Record, target any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return dec.Decode(map[string]any(rec))
}
