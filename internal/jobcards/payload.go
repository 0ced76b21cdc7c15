package jobcards

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/thedilution/dilution-backend/pkg/db/models"
	pkgerrors "github.com/thedilution/dilution-backend/pkg/errors"
)

// The gateway parses the material string on ':' and ',', so both are stripped
// from ingredient names before encoding.
var nameSanitizer = strings.NewReplacer(":", "", ",", "")

// TaskName returns the gateway task label for a jobcard.
func TaskName(jobcardID uuid.UUID) string {
	return fmt.Sprintf("Job-%s-Dilution-Mix", jobcardID)
}

// BuildMaterialPayload encodes the recipe as "name:qty:port" segments joined
// with commas, one segment per ingredient in input order. Every ingredient
// must carry a hardware port.
func BuildMaterialPayload(details []models.FormulaDetail) (string, error) {
	segments := make([]string, 0, len(details))
	for _, detail := range details {
		item := detail.Inventory
		if item == nil {
			return "", pkgerrors.New(pkgerrors.CodeInvariant, "formula detail is missing its inventory row")
		}
		if item.HardwarePort == nil || strings.TrimSpace(*item.HardwarePort) == "" {
			return "", pkgerrors.New(pkgerrors.CodeConfiguration,
				fmt.Sprintf("ingredient %q is not assigned to a hardware port", item.Name))
		}
		name := nameSanitizer.Replace(item.Name)
		segments = append(segments, fmt.Sprintf("%s:%d:%s", name, detail.RequiredQuantity, *item.HardwarePort))
	}
	return strings.Join(segments, ","), nil
}
