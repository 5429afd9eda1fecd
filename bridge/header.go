package bridge

import (
	"encoding/binary"
	"errors"
	"io"
	"strconv"

	"github.com/hetianyi/gofdfs/common"
)

// Header is the fixed 10 bytes leading every frame:
// body length (8 bytes, big endian), command, status.
type Header struct {
	BodyLength int64
	Cmd        byte
	Status     byte
}

// PackHeader packs a frame header.
func PackHeader(cmd byte, bodyLength int64, status byte) []byte {
	header := make([]byte, common.FDFS_PROTO_HEADER_LEN)
	binary.BigEndian.PutUint64(header, uint64(bodyLength))
	header[common.FDFS_PROTO_PKG_LEN_SIZE] = cmd
	header[common.FDFS_PROTO_PKG_LEN_SIZE+1] = status
	return header
}

// ReadHeader reads a response header and checks its command.
// A non-zero status is returned in Header.Status without error, body length
// is then reported as 0. expectBodyLength < 0 accepts any length.
func ReadHeader(in io.Reader, expectCmd byte, expectBodyLength int64) (*Header, error) {
	buff := make([]byte, common.FDFS_PROTO_HEADER_LEN)
	if _, err := io.ReadFull(in, buff); err != nil {
		return nil, common.NewLocalIOError("read header", err)
	}
	header := &Header{
		BodyLength: int64(binary.BigEndian.Uint64(buff)),
		Cmd:        buff[common.FDFS_PROTO_PKG_LEN_SIZE],
		Status:     buff[common.FDFS_PROTO_PKG_LEN_SIZE+1],
	}
	if header.Cmd != expectCmd {
		return nil, common.NewProtocolError("read header",
			"recv cmd: "+strconv.Itoa(int(header.Cmd))+" is not correct, expect cmd: "+strconv.Itoa(int(expectCmd)))
	}
	if header.Status != 0 {
		header.BodyLength = 0
		return header, nil
	}
	if header.BodyLength < 0 {
		return nil, common.NewProtocolError("read header",
			"recv body length: "+strconv.FormatInt(header.BodyLength, 10)+" < 0")
	}
	if expectBodyLength >= 0 && header.BodyLength != expectBodyLength {
		return nil, common.NewProtocolError("read header",
			"recv body length: "+strconv.FormatInt(header.BodyLength, 10)+
				" is not correct, expect length: "+strconv.FormatInt(expectBodyLength, 10))
	}
	return header, nil
}

// ReadPackage reads a whole response frame. The body is only read when
// the status is 0.
func ReadPackage(in io.Reader, expectCmd byte, expectBodyLength int64) (*Header, []byte, error) {
	header, err := ReadHeader(in, expectCmd, expectBodyLength)
	if err != nil {
		return nil, nil, err
	}
	if header.Status != 0 {
		return header, nil, nil
	}
	body := make([]byte, header.BodyLength)
	n, err := io.ReadFull(in, body)
	if err != nil {
		if err == io.ErrUnexpectedEOF || err == io.EOF {
			err = errors.New("recv package size " + strconv.Itoa(n) + " != " + strconv.FormatInt(header.BodyLength, 10))
		}
		return nil, nil, common.NewLocalIOError("read package", err)
	}
	return header, body, nil
}
