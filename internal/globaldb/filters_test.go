package globaldb

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/mattn/go-sqlite3"

	"github.com/syntropynet/globaldb/pkg/globaldb"
)

func TestChunks(t *testing.T) {
	tests := []struct {
		name   string
		values []int
		size   int
		want   [][]int
	}{
		{
			"empty",
			nil,
			2,
			nil,
		},
		{
			"exact",
			[]int{1, 2, 3, 4},
			2,
			[][]int{{1, 2}, {3, 4}},
		},
		{
			"remainder",
			[]int{1, 2, 3, 4, 5},
			2,
			[][]int{{1, 2}, {3, 4}, {5}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := chunks(tt.values, tt.size)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("chunks() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestChunks_NoAliasing(t *testing.T) {
	values := []int{1, 2, 3}
	got := chunks(values, 2)
	got[0] = append(got[0], 9)
	if values[2] != 3 {
		t.Errorf("appending to a chunk overwrote the input: %v", values)
	}
}

func TestLikePrefix(t *testing.T) {
	if got := likePrefix("_ceth_"); got != `\_ceth\_%` {
		t.Errorf("likePrefix() = %q", got)
	}
	if got := likePrefix(`a%b\`); got != `a\%b\\%` {
		t.Errorf("likePrefix() = %q", got)
	}
}

func TestWrapErrors(t *testing.T) {
	unique := sqlite3.Error{
		Code:         sqlite3.ErrConstraint,
		ExtendedCode: sqlite3.ErrConstraintUnique,
	}
	foreignKey := sqlite3.Error{
		Code:         sqlite3.ErrConstraint,
		ExtendedCode: sqlite3.ErrConstraintForeignKey,
	}
	notNull := sqlite3.Error{
		Code:         sqlite3.ErrConstraint,
		ExtendedCode: sqlite3.ErrConstraintNotNull,
	}
	other := errors.New("disk I/O error")

	tests := []struct {
		name string
		got  error
		want error
	}{
		{"write unique", wrapWriteError(unique, "asset"), globaldb.ErrAssetExists},
		{"write foreign key", wrapWriteError(foreignKey, "asset"), globaldb.ErrInput},
		{"write wrapped", wrapWriteError(fmt.Errorf("insert: %w", notNull), "asset"), globaldb.ErrInput},
		{"delete foreign key", wrapDeleteError(foreignKey, "asset"), globaldb.ErrAssetReferenced},
		{"delete other constraint", wrapDeleteError(notNull, "asset"), globaldb.ErrInput},
		{"write other", wrapWriteError(other, "asset"), other},
		{"delete other", wrapDeleteError(other, "asset"), other},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.got, tt.want) {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}

	if wrapWriteError(nil, "asset") != nil || wrapDeleteError(nil, "asset") != nil {
		t.Errorf("nil errors must stay nil")
	}
}

func TestIsBusyError(t *testing.T) {
	busy := fmt.Errorf("commit: %w", sqlite3.Error{Code: sqlite3.ErrBusy})
	if !isBusyError(busy) {
		t.Errorf("isBusyError(%v) = false", busy)
	}
	if isBusyError(sqlite3.Error{Code: sqlite3.ErrConstraint}) || isBusyError(errors.New("busy")) {
		t.Errorf("isBusyError() matched a non busy error")
	}
}

func TestConstraintName(t *testing.T) {
	tests := []struct {
		msg  string
		want string
	}{
		{"UNIQUE constraint failed: assets.identifier", "assets.identifier"},
		{"FOREIGN KEY constraint failed", "FOREIGN KEY constraint"},
		{"database is locked", "database is locked"},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			if got := constraintName(errors.New(tt.msg)); got != tt.want {
				t.Errorf("constraintName() = %q, want %q", got, tt.want)
			}
		})
	}
}
