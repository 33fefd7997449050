// Package nnueu implements the incrementally-updatable quantized
// network evaluator: a 640-feature input transformer, a king-square
// indexed second layer, and a small fixed-point MLP.
package nnueu

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/hailam/nnueuchess/internal/board"
)

const (
	// FeatureCount is the size of the per-perspective input layer:
	// 5 non-king piece types, 2 colours, 64 squares.
	FeatureCount = 640
	// FirstOut is the width of the input transformer's output.
	FirstOut = 8
	// SecondOut is the number of int8 weights in one king-square block of
	// a second-layer head (4 neurons x 8 inputs); the third layer's 4x8
	// weight matrix has the same size.
	SecondOut = 32
)

// Transformer holds every weight matrix needed to build and
// incrementally update an AccumulatorState, plus the king-indexed
// second-layer blocks used by the network's forward pass.
type Transformer struct {
	FirstBias [FirstOut]int16

	// firstW[feature] is the weight row added for that feature on the
	// perspective whose square numbering matches the board directly;
	// firstWInv is the same table reinterpreted for the mirrored
	// (opposite-colour, vertically-flipped) perspective.
	FirstW    [FeatureCount][FirstOut]int16
	FirstWInv [FeatureCount][FirstOut]int16

	// FirstW2[add][remove] = FirstW[add] - FirstW[remove], saturated to
	// int16. Fuses the common "move a piece" pattern (remove the old
	// feature, add the new one) into a single vector add.
	FirstW2    [][FirstOut]int16
	FirstW2Inv [][FirstOut]int16

	// Second1/Second2 are the king-square indexed weight blocks for the
	// two parallel second-layer heads (4 neurons x 8 inputs each,
	// flattened to 32 int8 per king square).
	Second1 [64][SecondOut]int8
	Second2 [64][SecondOut]int8

	SecondBias [FirstOut]int16 // concatenation of the two 4-element head biases

	ThirdW    [SecondOut]int8
	ThirdBias [4]int16

	FinalW    [8]int8 // only the first 4 entries are non-zero
	FinalBias int16
}

// featureIndex maps a (piece type, colour, square) triple to its column
// in the 640-wide first layer. The mapping itself is board.FeatureIndex;
// this wraps it so the accumulator code below doesn't spell the package
// qualifier at every call site.
func featureIndex(pt board.PieceType, c board.Color, sq board.Square) int {
	return board.FeatureIndex(pt, c, sq)
}

// FeatureIndex is the exported form of featureIndex, used by the
// search layer to build the Change that describes a move's effect on
// the input layer.
func FeatureIndex(pt board.PieceType, c board.Color, sq board.Square) int {
	return board.FeatureIndex(pt, c, sq)
}

// mirrorSquare flips a square vertically (rank r -> rank 7-r, file
// unchanged), used to reinterpret the white-perspective weight tables
// for the black perspective.
func mirrorSquare(sq board.Square) board.Square {
	return board.Square(int(sq) ^ 56)
}

// NewTransformer allocates a Transformer with its (large) delta tables
// sized but not yet populated; call Load to fill it in.
func NewTransformer() *Transformer {
	t := &Transformer{}
	t.FirstW2 = make([][FirstOut]int16, FeatureCount*FeatureCount)
	t.FirstW2Inv = make([][FirstOut]int16, FeatureCount*FeatureCount)
	return t
}

func (t *Transformer) delta(i, j int) int { return i*FeatureCount + j }

// Load reads the NNUEU weight directory (see the UCI EvalFile option)
// and populates every table, including the precomputed add/remove
// delta tensors.
func (t *Transformer) Load(dir string) error {
	firstW, err := readInt16Matrix(filepath.Join(dir, "first_linear_weights.csv"), FirstOut, FeatureCount)
	if err != nil {
		return fmt.Errorf("nnueu: first_linear_weights: %w", err)
	}
	for col := 0; col < FeatureCount; col++ {
		for row := 0; row < FirstOut; row++ {
			t.FirstW[col][row] = firstW[row][col]
		}
	}
	for col := 0; col < FeatureCount; col++ {
		pieceType := col / 64
		sq := board.Square(col % 64)
		newPieceType := (pieceType + 5) % 10
		newCol := newPieceType*64 + int(mirrorSquare(sq))
		for row := 0; row < FirstOut; row++ {
			t.FirstWInv[newCol][row] = firstW[row][col]
		}
	}

	bias, err := readInt16Vector(filepath.Join(dir, "first_linear_biases.csv"), FirstOut)
	if err != nil {
		return fmt.Errorf("nnueu: first_linear_biases: %w", err)
	}
	copy(t.FirstBias[:], bias)

	second1, err := readInt8Matrix(filepath.Join(dir, "second_layer_turn_weights.csv"), 4, 64*8)
	if err != nil {
		return fmt.Errorf("nnueu: second_layer_turn_weights: %w", err)
	}
	reshapeSecondLayer(second1, &t.Second1)

	second2, err := readInt8Matrix(filepath.Join(dir, "second_layer_not_turn_weights.csv"), 4, 64*8)
	if err != nil {
		return fmt.Errorf("nnueu: second_layer_not_turn_weights: %w", err)
	}
	reshapeSecondLayer(second2, &t.Second2)

	turnBias, err := readInt16Vector(filepath.Join(dir, "second_layer_turn_biases.csv"), 4)
	if err != nil {
		return fmt.Errorf("nnueu: second_layer_turn_biases: %w", err)
	}
	notTurnBias, err := readInt16Vector(filepath.Join(dir, "second_layer_not_turn_biases.csv"), 4)
	if err != nil {
		return fmt.Errorf("nnueu: second_layer_not_turn_biases: %w", err)
	}
	copy(t.SecondBias[0:4], turnBias)
	copy(t.SecondBias[4:8], notTurnBias)

	thirdW, err := readInt8Vector(filepath.Join(dir, "third_layer_weights.csv"), SecondOut)
	if err != nil {
		return fmt.Errorf("nnueu: third_layer_weights: %w", err)
	}
	copy(t.ThirdW[:], thirdW)

	thirdBias, err := readInt16Vector(filepath.Join(dir, "third_layer_biases.csv"), 4)
	if err != nil {
		return fmt.Errorf("nnueu: third_layer_biases: %w", err)
	}
	copy(t.ThirdBias[:], thirdBias)

	finalW, err := readInt8Vector(filepath.Join(dir, "final_layer_weights.csv"), 4)
	if err != nil {
		return fmt.Errorf("nnueu: final_layer_weights: %w", err)
	}
	copy(t.FinalW[0:4], finalW)

	finalBias, err := readInt16Vector(filepath.Join(dir, "final_layer_biases.csv"), 1)
	if err != nil {
		return fmt.Errorf("nnueu: final_layer_biases: %w", err)
	}
	t.FinalBias = finalBias[0]

	t.buildDeltaTables()
	return nil
}

// buildDeltaTables precomputes FirstW2[add][remove] = FirstW[add] -
// FirstW[remove] (and the mirrored equivalent), saturated to int16.
func (t *Transformer) buildDeltaTables() {
	for i := 0; i < FeatureCount; i++ {
		for j := 0; j < FeatureCount; j++ {
			idx := t.delta(i, j)
			for k := 0; k < FirstOut; k++ {
				t.FirstW2[idx][k] = saturateInt16(int32(t.FirstW[i][k]) - int32(t.FirstW[j][k]))
				t.FirstW2Inv[idx][k] = saturateInt16(int32(t.FirstWInv[i][k]) - int32(t.FirstWInv[j][k]))
			}
		}
	}
}

func saturateInt16(v int32) int16 {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}

// reshapeSecondLayer turns 4 rows x 512 columns into 64 king-squares x
// 32 weights, matching the original per-king-square block layout.
func reshapeSecondLayer(rows [][]int8, out *[64][SecondOut]int8) {
	for row := 0; row < 4; row++ {
		for col := 0; col < 64*8; col++ {
			kingSq := col / 8
			w := (col % 8) + row*8
			out[kingSq][w] = rows[row][col]
		}
	}
}

func readCSVFields(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	return r.ReadAll()
}

func readInt16Matrix(path string, rows, cols int) ([][]int16, error) {
	records, err := readCSVFields(path)
	if err != nil {
		return nil, err
	}
	out := make([][]int16, rows)
	for r := 0; r < rows && r < len(records); r++ {
		out[r] = make([]int16, cols)
		for c := 0; c < cols && c < len(records[r]); c++ {
			v, err := strconv.Atoi(records[r][c])
			if err != nil {
				return nil, fmt.Errorf("%s: row %d col %d: %w", path, r, c, err)
			}
			out[r][c] = int16(v)
		}
	}
	return out, nil
}

func readInt8Matrix(path string, rows, cols int) ([][]int8, error) {
	records, err := readCSVFields(path)
	if err != nil {
		return nil, err
	}
	out := make([][]int8, rows)
	for r := 0; r < rows && r < len(records); r++ {
		out[r] = make([]int8, cols)
		for c := 0; c < cols && c < len(records[r]); c++ {
			v, err := strconv.Atoi(records[r][c])
			if err != nil {
				return nil, fmt.Errorf("%s: row %d col %d: %w", path, r, c, err)
			}
			out[r][c] = int8(v)
		}
	}
	return out, nil
}

func readInt16Vector(path string, n int) ([]int16, error) {
	records, err := readCSVFields(path)
	if err != nil {
		return nil, err
	}
	out := make([]int16, n)
	i := 0
	for _, rec := range records {
		for _, field := range rec {
			if i >= n {
				break
			}
			v, err := strconv.Atoi(field)
			if err != nil {
				return nil, fmt.Errorf("%s: field %d: %w", path, i, err)
			}
			out[i] = int16(v)
			i++
		}
	}
	return out, nil
}

func readInt8Vector(path string, n int) ([]int8, error) {
	records, err := readCSVFields(path)
	if err != nil {
		return nil, err
	}
	out := make([]int8, n)
	i := 0
	for _, rec := range records {
		for _, field := range rec {
			if i >= n {
				break
			}
			v, err := strconv.Atoi(field)
			if err != nil {
				return nil, fmt.Errorf("%s: field %d: %w", path, i, err)
			}
			out[i] = int8(v)
			i++
		}
	}
	return out, nil
}
