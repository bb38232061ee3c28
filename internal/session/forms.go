package session

import (
	"strconv"
	"strings"
	"time"

	"github.com/jrmonge/recordhub/internal/bmi"
	"github.com/jrmonge/recordhub/internal/store"
	"github.com/jrmonge/recordhub/internal/validate"
)

// ProductForm configures the product screen: name, price, and quantity over
// the given collection.
func ProductForm(gateway store.Store, collection string) *Controller {
	return New(gateway, Config{
		Collection: collection,
		Fields:     []string{"name", "price", "quantity"},
		Validate:   validateProduct,
		Build:      buildProduct,
	})
}

func validateProduct(fields map[string]string) error {
	if !validate.Required(fields["name"]) {
		return &ValidationError{Field: "name", Reason: "required"}
	}
	if !validate.PositiveNumber(fields["price"]) {
		return &ValidationError{Field: "price", Reason: "must be a number greater than zero"}
	}
	if !validate.NonNegativeInt(fields["quantity"]) {
		return &ValidationError{Field: "quantity", Reason: "must be a whole number of zero or more"}
	}
	return nil
}

func buildProduct(fields map[string]string) store.Record {
	price, _ := strconv.ParseFloat(strings.TrimSpace(fields["price"]), 64)
	quantity, _ := strconv.Atoi(strings.TrimSpace(fields["quantity"]))
	return store.Record{
		"name":     strings.TrimSpace(fields["name"]),
		"price":    price,
		"quantity": quantity,
	}
}

// BMIForm configures the measurement screen: name, weight (kg), and height
// (cm). Submissions store a computed, classified measurement.
func BMIForm(gateway store.Store, collection string) *Controller {
	return New(gateway, Config{
		Collection: collection,
		Fields:     []string{"name", "weight", "height"},
		Validate:   validateMeasurement,
		Build:      buildMeasurement,
	})
}

func validateMeasurement(fields map[string]string) error {
	if !validate.Required(fields["name"]) {
		return &ValidationError{Field: "name", Reason: "required"}
	}
	if !validate.PositiveNumber(fields["weight"]) {
		return &ValidationError{Field: "weight", Reason: "must be a number greater than zero"}
	}
	if !validate.PositiveNumber(fields["height"]) {
		return &ValidationError{Field: "height", Reason: "must be a number greater than zero"}
	}
	return nil
}

func buildMeasurement(fields map[string]string) store.Record {
	weight, _ := strconv.ParseFloat(strings.TrimSpace(fields["weight"]), 64)
	height, _ := strconv.ParseFloat(strings.TrimSpace(fields["height"]), 64)
	name := strings.TrimSpace(fields["name"])
	return bmi.NewMeasurement(name, weight, height, time.Now()).Fields()
}
