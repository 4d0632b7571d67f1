// Package bitfield packs and unpacks tagged struct fields into a single
// integer. Adapted from iansmith-mazarin's src/bitfield package (itself a
// simplified take on golang.org/x/text/internal/gen/bitfield), generalized
// here with a matching Unpack so that descriptor-table bytes — which are
// genuinely multi-field bitfields (present bit + 2-bit DPL + 4-bit type,
// not OR-combinable flags) — can be built and read back without hand
//-written shift/mask pairs scattered across the GDT/IDT code.
package bitfield

import (
	"fmt"
	"reflect"
)

// Config determines the overall width used for bounds checking.
type Config struct {
	// NumBits fixes the maximum allowed bits for the integer
	// representation. Zero disables the overall-width check.
	NumBits uint
}

// Pack packs the annotated bit ranges of struct x into an integer. Only
// fields tagged `bitfield:",n"` are packed, in declaration order, each
// occupying the next n bits above the previous field.
func Pack(x interface{}, c *Config) (packed uint64, err error) {
	if c == nil {
		c = &Config{NumBits: 64}
	}

	v := reflect.ValueOf(x)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return 0, fmt.Errorf("bitfield: Pack expected struct, got %v", v.Kind())
	}

	t := v.Type()
	var bitOffset uint

	for i := 0; i < v.NumField(); i++ {
		field := t.Field(i)
		bits, ok := fieldBits(field)
		if !ok || bits == 0 {
			continue
		}

		fieldValue := v.Field(i)
		var fieldBits uint64

		switch fieldValue.Kind() {
		case reflect.Bool:
			if fieldValue.Bool() {
				fieldBits = 1
			}
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			fieldBits = fieldValue.Uint()
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			val := fieldValue.Int()
			if val < 0 {
				return 0, fmt.Errorf("bitfield: Pack negative value %d for field %s", val, field.Name)
			}
			fieldBits = uint64(val)
		default:
			return 0, fmt.Errorf("bitfield: Pack unsupported field type %v for field %s", fieldValue.Kind(), field.Name)
		}

		maxValue := uint64((1 << bits) - 1)
		if fieldBits > maxValue {
			return 0, fmt.Errorf("bitfield: Pack value %d exceeds %d bits for field %s", fieldBits, bits, field.Name)
		}

		packed |= fieldBits << bitOffset
		bitOffset += bits
	}

	if c.NumBits > 0 && bitOffset > c.NumBits {
		return 0, fmt.Errorf("bitfield: Pack total bits %d exceeds NumBits %d", bitOffset, c.NumBits)
	}

	return packed, nil
}

// Unpack reverses Pack: it reads the bit ranges named by the `bitfield`
// tags on dst (a pointer to struct) out of packed, in the same
// declaration-order layout Pack uses.
func Unpack(packed uint64, dst interface{}) error {
	v := reflect.ValueOf(dst)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return fmt.Errorf("bitfield: Unpack expected non-nil pointer, got %v", v.Kind())
	}
	v = v.Elem()
	if v.Kind() != reflect.Struct {
		return fmt.Errorf("bitfield: Unpack expected pointer to struct, got %v", v.Kind())
	}

	t := v.Type()
	var bitOffset uint

	for i := 0; i < v.NumField(); i++ {
		field := t.Field(i)
		bits, ok := fieldBits(field)
		if !ok || bits == 0 {
			continue
		}

		mask := uint64((1 << bits) - 1)
		raw := (packed >> bitOffset) & mask
		bitOffset += bits

		fv := v.Field(i)
		switch fv.Kind() {
		case reflect.Bool:
			fv.SetBool(raw != 0)
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			fv.SetUint(raw)
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			fv.SetInt(int64(raw))
		default:
			return fmt.Errorf("bitfield: Unpack unsupported field type %v for field %s", fv.Kind(), field.Name)
		}
	}

	return nil
}

func fieldBits(field reflect.StructField) (uint, bool) {
	tag := field.Tag.Get("bitfield")
	if tag == "" {
		return 0, false
	}

	var bits uint
	if _, err := fmt.Sscanf(tag, ",%d", &bits); err != nil {
		var methodName string
		if _, err := fmt.Sscanf(tag, "%s,%d", &methodName, &bits); err != nil {
			return 0, false
		}
	}
	return bits, true
}
