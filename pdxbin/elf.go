// ELF32 synthesis for decoded PDX/BIN payloads. No example repo in the
// retrieval pack ships an ELF writer, so this is hand-rolled on
// encoding/binary the same way wav.go packs RIFF fields — mechanical fixed
// field framing, not a generic object-file library concern.
package pdxbin

import (
	"bytes"
	"encoding/binary"
)

const (
	elfClass32   = 1
	elfData2LSB  = 1
	elfVersion1  = 1
	etREL        = 2
	emARM        = 0x28
	shtNULL      = 0
	shtPROGBITS  = 1
	shtSYMTAB    = 2
	shtSTRTAB    = 3
	shtREL       = 9
	shtNOBITS    = 8
	shfWRITE     = 0x1
	shfALLOC     = 0x2
	shfEXECINSTR = 0x4
	ptLOAD       = 1
	pfX          = 0x1
	pfW          = 0x2
	pfR          = 0x4
	rARMAbs32    = 2

	codeFileOffset = 0x10000
	ehdrSize       = 52
	phdrSize       = 32
	shdrSize       = 40
	symSize        = 16
	relSize        = 8
)

// sectionIndex names the fixed section-header-table slots this synthesiser
// always emits, in order.
const (
	secNULL = iota
	secText
	secBSS
	secRelText
	secSymtab
	secStrtab
	secShstrtab
	numSections
)

// ToELF synthesises a minimal relocatable ELF32 object carrying the
// binary's code, a single BSS-sized LOAD segment, one synthetic
// "event_handler" symbol at the entry offset, and a .rel.text built from
// the raw relocation offsets (symbol index 0, type R_ARM_ABS32 — the
// decoded format gives no richer per-relocation symbol information to draw
// on).
func (b *Binary) ToELF() []byte {
	strtab := []byte{0x00}
	eventHandlerNameOff := len(strtab)
	strtab = append(strtab, []byte("event_handler\x00")...)

	shstrtab := []byte{0x00}
	nameOffsets := make([]uint32, numSections)
	names := []string{"", ".text", ".bss", ".rel.text", ".symtab", ".strtab", ".shstrtab"}
	for i := 1; i < numSections; i++ {
		nameOffsets[i] = uint32(len(shstrtab))
		shstrtab = append(shstrtab, append([]byte(names[i]), 0x00)...)
	}

	var symtab bytes.Buffer
	writeSym(&symtab, 0, 0, 0, 0, 0) // STN_UNDEF
	const stbGlobal, sttFunc = 1, 2
	writeSym(&symtab, uint32(eventHandlerNameOff), b.EventHandler, stbGlobal<<4|sttFunc, secText, 0)

	var reltext bytes.Buffer
	for _, off := range b.Relocations {
		writeRel(&reltext, off, 0, rARMAbs32)
	}

	textOff := uint32(codeFileOffset)
	textEnd := textOff + uint32(len(b.Code))
	relOff := textEnd
	relEnd := relOff + uint32(reltext.Len())
	symOff := relEnd
	symEnd := symOff + uint32(symtab.Len())
	strOff := symEnd
	strEnd := strOff + uint32(len(strtab))
	shstrOff := strEnd
	shstrEnd := shstrOff + uint32(len(shstrtab))
	shoff := shstrEnd

	bssSize := uint32(0)
	if b.MemSize > b.CodeSize {
		bssSize = b.MemSize - b.CodeSize
	}

	var out bytes.Buffer
	writeEhdr(&out, b.EventHandler, phdrOff(), shoff, uint16(secShstrtab))
	writePhdr(&out, textOff, uint32(len(b.Code)), b.MemSize)

	out.Write(make([]byte, int(textOff)-out.Len())) // pad up to codeFileOffset
	out.Write(b.Code)
	out.Write(reltext.Bytes())
	out.Write(symtab.Bytes())
	out.Write(strtab)
	out.Write(shstrtab)

	writeShdr(&out, 0, shtNULL, 0, 0, 0, 0, 0, 0, 0, 0) // NULL
	writeShdr(&out, nameOffsets[secText], shtPROGBITS, shfALLOC|shfEXECINSTR, 0, textOff, uint32(len(b.Code)), 0, 0, 4, 0)
	writeShdr(&out, nameOffsets[secBSS], shtNOBITS, shfALLOC|shfWRITE, uint32(len(b.Code)), textEnd, bssSize, 0, 0, 4, 0)
	writeShdr(&out, nameOffsets[secRelText], shtREL, 0, 0, relOff, uint32(reltext.Len()), secSymtab, secText, 4, relSize)
	writeShdr(&out, nameOffsets[secSymtab], shtSYMTAB, 0, 0, symOff, uint32(symtab.Len()), secStrtab, 1, 4, symSize)
	writeShdr(&out, nameOffsets[secStrtab], shtSTRTAB, 0, 0, strOff, uint32(len(strtab)), 0, 0, 1, 0)
	writeShdr(&out, nameOffsets[secShstrtab], shtSTRTAB, 0, 0, shstrOff, uint32(len(shstrtab)), 0, 0, 1, 0)

	return out.Bytes()
}

func phdrOff() uint32 { return ehdrSize }

func writeEhdr(buf *bytes.Buffer, entry, phoff, shoff uint32, shstrndx uint16) {
	ident := make([]byte, 16)
	ident[0], ident[1], ident[2], ident[3] = 0x7f, 'E', 'L', 'F'
	ident[4] = elfClass32
	ident[5] = elfData2LSB
	ident[6] = elfVersion1
	buf.Write(ident)
	writeU16(buf, etREL)
	writeU16(buf, emARM)
	writeU32(buf, elfVersion1)
	writeU32(buf, entry)
	writeU32(buf, phoff)
	writeU32(buf, shoff)
	writeU32(buf, 0) // e_flags
	writeU16(buf, ehdrSize)
	writeU16(buf, phdrSize)
	writeU16(buf, 1) // e_phnum
	writeU16(buf, shdrSize)
	writeU16(buf, numSections)
	writeU16(buf, shstrndx)
}

func writePhdr(buf *bytes.Buffer, offset, filesz, memsz uint32) {
	writeU32(buf, ptLOAD)
	writeU32(buf, offset)
	writeU32(buf, 0) // p_vaddr
	writeU32(buf, 0) // p_paddr
	writeU32(buf, filesz)
	writeU32(buf, memsz)
	writeU32(buf, pfR|pfW|pfX)
	writeU32(buf, 0x1000) // p_align
}

func writeShdr(buf *bytes.Buffer, name, typ, flags, addr, offset, size, link, info, addralign, entsize uint32) {
	writeU32(buf, name)
	writeU32(buf, typ)
	writeU32(buf, flags)
	writeU32(buf, addr)
	writeU32(buf, offset)
	writeU32(buf, size)
	writeU32(buf, link)
	writeU32(buf, info)
	writeU32(buf, addralign)
	writeU32(buf, entsize)
}

func writeSym(buf *bytes.Buffer, name, value, info uint32, shndx uint16, size uint32) {
	writeU32(buf, name)
	writeU32(buf, value)
	writeU32(buf, size)
	buf.WriteByte(byte(info))
	buf.WriteByte(0) // st_other
	writeU16(buf, shndx)
}

func writeRel(buf *bytes.Buffer, offset, sym uint32, typ uint8) {
	writeU32(buf, offset)
	writeU32(buf, sym<<8|uint32(typ))
}

func writeU16(buf *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	buf.Write(b[:])
}

func writeU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}
