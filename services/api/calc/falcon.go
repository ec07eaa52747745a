package calc

import "fmt"

// FalconDatasets maps each calibrated Falcon set to its per-slot tare
// weights in grams. The tare of a slot is fixed per dataset and never
// re-measured during an experiment.
var FalconDatasets = map[string][]float64{
	"Set Normal": {9.940, 10.108, 10.002, 9.976, 9.955, 9.967, 9.956, 9.979, 9.936, 9.919, 9.997, 9.934},
	"Set Bold":   {9.974, 9.974, 9.954, 9.924, 9.967, 9.987, 9.948, 9.972, 9.987, 9.980, 9.994, 9.982},
}

// FalconSetNames returns the known dataset names in a stable order.
func FalconSetNames() []string {
	return []string{"Set Normal", "Set Bold"}
}

// FalconSlot describes one assigned tube of a dataset.
type FalconSlot struct {
	ID   string
	Tare float64
}

// AssignFalconSlots hands out n tubes from the named dataset, cycling
// through the slots when n exceeds the dataset size. Unknown dataset names
// yield nil.
func AssignFalconSlots(dataset string, n int) []FalconSlot {
	weights, ok := FalconDatasets[dataset]
	if !ok || n <= 0 {
		return nil
	}
	slots := make([]FalconSlot, 0, n)
	for i := 0; i < n; i++ {
		slots = append(slots, FalconSlot{
			ID:   fmt.Sprintf("F_%d", i+1),
			Tare: weights[i%len(weights)],
		})
	}
	return slots
}
