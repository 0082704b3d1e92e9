package models

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Packet sizes on the wire
const (
	CustomerDataSize = 8
	ResponseDataSize = 4
)

// CustomerData is the binary event of the customer function
type CustomerData struct {
	Key   int32
	Value int32
}

// ResponseData is the binary response of the customer function
type ResponseData struct {
	Value int32
}

// MarshalBinary encodes the packet little-endian
func (d CustomerData) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, d); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary decodes a packet of exactly CustomerDataSize bytes
func (d *CustomerData) UnmarshalBinary(data []byte) error {
	if len(data) != CustomerDataSize {
		return fmt.Errorf("customer data must be %d bytes, got %d", CustomerDataSize, len(data))
	}
	return binary.Read(bytes.NewReader(data), binary.LittleEndian, d)
}

// MarshalBinary encodes the packet little-endian
func (r ResponseData) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary decodes a packet of exactly ResponseDataSize bytes
func (r *ResponseData) UnmarshalBinary(data []byte) error {
	if len(data) != ResponseDataSize {
		return fmt.Errorf("response data must be %d bytes, got %d", ResponseDataSize, len(data))
	}
	return binary.Read(bytes.NewReader(data), binary.LittleEndian, r)
}
