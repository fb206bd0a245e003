package ppc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These encodings are taken directly from the Book I Branch Conditional
// instruction layout (primary opcode 16/19, BO/BI/BD or BO/BI/XO fields);
// they exercise the same BO patterns real compiled PowerPC uses for an
// unconditional return, an unconditional indirect jump, and a
// CR0[EQ]-conditioned branch.
const (
	wordBLR  = 0x4E800020 // bclr  20,0,0  (bo=20 -> always)
	wordBCTR = 0x4E800420 // bcctr 20,0,0  (bo=20 -> always)
	wordBEQ  = 0x41820008 // bc    12,2,8  (bo=12 -> branch if CR0[EQ])
)

func TestDecodeBlrProducesBclrAlways(t *testing.T) {
	d, err := Decode(0x1000, wordBLR)
	require.NoError(t, err)
	assert.Equal(t, BCLR, d.Mnemonic)
	bo, bi := d.Operands[0], d.Operands[1]
	assert.Equal(t, uint32(20), bo)
	assert.Equal(t, uint32(0), bi)
}

func TestDecodeBctrProducesBcctrAlways(t *testing.T) {
	d, err := Decode(0x1000, wordBCTR)
	require.NoError(t, err)
	assert.Equal(t, BCCTR, d.Mnemonic)
	bo := d.Operands[0]
	assert.Equal(t, uint32(20), bo)
}

func TestDecodeBeqProducesBcWithResolvedTarget(t *testing.T) {
	d, err := Decode(0x2000, wordBEQ)
	require.NoError(t, err)
	assert.Equal(t, BC, d.Mnemonic)
	bo, bi, target := d.Operands[0], d.Operands[1], d.Operands[2]
	assert.Equal(t, uint32(12), bo)
	assert.Equal(t, uint32(2), bi)
	// PCRel target is relative to the instruction's own address; Decode
	// must resolve it to the absolute guest address before returning.
	assert.Equal(t, uint32(0x2008), target)
}

func TestDecodeUnknownWordReturnsErrUndecodable(t *testing.T) {
	// Primary opcode 1 holds no standalone 4-byte instruction, and VMX128
	// forms use primary opcode 4. (0xFFFFFFFF would decode as fnmadd.)
	_, err := Decode(0x3000, 0x04000000)
	require.Error(t, err)
	var undecodable *ErrUndecodable
	assert.ErrorAs(t, err, &undecodable)
}
