package comparer

import (
	"encoding/json"
	"reflect"

	"stockgraph/src/domain/entities"

	"github.com/google/go-cmp/cmp"
)

// Documents compara entities.Document pela forma JSON canônica, ignorando
// diferenças de representação numérica (int vs float64)
func Documents() cmp.Option {
	return cmp.Comparer(func(x, y entities.Document) bool {
		// Se ambos são nil ou vazios
		if len(x) == 0 && len(y) == 0 {
			return true
		}

		// Se um é vazio e o outro não
		if len(x) == 0 || len(y) == 0 {
			return false
		}

		xJSON, errX := json.Marshal(x)
		yJSON, errY := json.Marshal(y)
		if errX != nil || errY != nil {
			return false
		}

		var xObj, yObj interface{}
		if err := json.Unmarshal(xJSON, &xObj); err != nil {
			return false
		}
		if err := json.Unmarshal(yJSON, &yObj); err != nil {
			return false
		}

		// Usa reflect.DeepEqual para comparação semântica
		return reflect.DeepEqual(xObj, yObj)
	})
}
