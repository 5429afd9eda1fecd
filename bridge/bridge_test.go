package bridge

import (
	"bytes"
	"errors"
	"testing"

	"github.com/hetianyi/gofdfs/common"
	"github.com/hetianyi/gox/logger"
)

func init() {
	logger.Init(&logger.Config{
		Level: logger.DebugLevel,
	})
}

func TestPackHeader(t *testing.T) {
	h := PackHeader(common.STORAGE_PROTO_CMD_UPLOAD_FILE, 0x0102, 0)
	expect := []byte{0, 0, 0, 0, 0, 0, 1, 2, 11, 0}
	if !bytes.Equal(h, expect) {
		t.Fatalf("unexpected header: %v", h)
	}
}

func TestReadHeader(t *testing.T) {
	in := bytes.NewReader(PackHeader(common.STORAGE_PROTO_CMD_RESP, 40, 0))
	h, err := ReadHeader(in, common.STORAGE_PROTO_CMD_RESP, 40)
	if err != nil {
		t.Fatal(err)
	}
	if h.BodyLength != 40 || h.Status != 0 {
		t.Fatalf("unexpected header: %+v", h)
	}

	// any length
	in = bytes.NewReader(PackHeader(common.STORAGE_PROTO_CMD_RESP, 123, 0))
	if _, err = ReadHeader(in, common.STORAGE_PROTO_CMD_RESP, -1); err != nil {
		t.Fatal(err)
	}
}

func TestReadHeaderStatus(t *testing.T) {
	// a non-zero status skips the length check
	in := bytes.NewReader(PackHeader(common.STORAGE_PROTO_CMD_RESP, 99, common.ERR_NO_ENOENT))
	h, err := ReadHeader(in, common.STORAGE_PROTO_CMD_RESP, 0)
	if err != nil {
		t.Fatal(err)
	}
	if h.Status != common.ERR_NO_ENOENT || h.BodyLength != 0 {
		t.Fatalf("unexpected header: %+v", h)
	}
}

func TestReadHeaderMismatch(t *testing.T) {
	in := bytes.NewReader(PackHeader(common.STORAGE_PROTO_CMD_UPLOAD_FILE, 0, 0))
	if _, err := ReadHeader(in, common.STORAGE_PROTO_CMD_RESP, 0); !errors.Is(err, common.ProtocolMismatchErr) {
		t.Fatalf("expect protocol mismatch, got %v", err)
	}

	in = bytes.NewReader(PackHeader(common.STORAGE_PROTO_CMD_RESP, 39, 0))
	if _, err := ReadHeader(in, common.STORAGE_PROTO_CMD_RESP, 40); !errors.Is(err, common.ProtocolMismatchErr) {
		t.Fatalf("expect protocol mismatch, got %v", err)
	}

	in = bytes.NewReader(PackHeader(common.STORAGE_PROTO_CMD_RESP, -1, 0))
	if _, err := ReadHeader(in, common.STORAGE_PROTO_CMD_RESP, -1); !errors.Is(err, common.ProtocolMismatchErr) {
		t.Fatalf("expect protocol mismatch, got %v", err)
	}

	in = bytes.NewReader([]byte{0, 0, 0})
	_, err := ReadHeader(in, common.STORAGE_PROTO_CMD_RESP, -1)
	if !errors.Is(err, common.LocalIOErr) {
		t.Fatalf("expect local io error, got %v", err)
	}
	if common.ErrorCode(err) != common.ERR_NO_EIO {
		t.Fatalf("unexpected errno %d", common.ErrorCode(err))
	}
}

func TestReadPackage(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(PackHeader(common.STORAGE_PROTO_CMD_RESP, 5, 0))
	buf.WriteString("hello")
	_, body, err := ReadPackage(&buf, common.STORAGE_PROTO_CMD_RESP, -1)
	if err != nil {
		t.Fatal(err)
	}
	if string(body) != "hello" {
		t.Fatalf("unexpected body %q", body)
	}

	buf.Reset()
	buf.Write(PackHeader(common.STORAGE_PROTO_CMD_RESP, 5, 0))
	buf.WriteString("hel")
	if _, _, err = ReadPackage(&buf, common.STORAGE_PROTO_CMD_RESP, -1); !errors.Is(err, common.LocalIOErr) {
		t.Fatalf("expect local io error, got %v", err)
	}
}

func TestPackField(t *testing.T) {
	f := PackField("group1", common.FDFS_GROUP_NAME_MAX_LEN)
	if len(f) != 16 || string(f[:6]) != "group1" || f[6] != 0 || f[15] != 0 {
		t.Fatalf("unexpected field %v", f)
	}
	f = PackField("abcdefghijklmnopqrstuvwxyz", common.FDFS_GROUP_NAME_MAX_LEN)
	if string(f) != "abcdefghijklmnop" {
		t.Fatalf("unexpected field %q", f)
	}
	if UnpackField(PackField("10.0.0.1", common.FDFS_IPADDR_SIZE)) != "10.0.0.1" {
		t.Fatal("unpack field failed")
	}
}

func TestLongCodec(t *testing.T) {
	for _, n := range []int64{0, 1, 255, 1 << 40, -1, common.APPENDER_FILE_SIZE} {
		if v := Buff2Long(Long2Buff(n), 0); v != n {
			t.Fatalf("expect %d, got %d", n, v)
		}
	}
	if Buff2Int([]byte{9, 0x12, 0x34, 0x56, 0x78}, 1) != 0x12345678 {
		t.Fatal("buff2int failed")
	}
	if ip := FormatIPAddress([]byte{192, 168, 1, 20}, 0); ip != "192.168.1.20" {
		t.Fatalf("unexpected ip %s", ip)
	}
}

func TestMetadata(t *testing.T) {
	list := []common.MetaData{
		{Name: "width", Value: "800"},
		{Name: "author", Value: ""},
	}
	buff := PackMetadata(list)
	if string(buff) != "width\x02800\x01author\x02" {
		t.Fatalf("unexpected metadata %q", buff)
	}
	ret := SplitMetadata(buff)
	if len(ret) != 2 || ret[0] != list[0] || ret[1] != list[1] {
		t.Fatalf("unexpected list %+v", ret)
	}
	if ret = SplitMetadata(nil); ret == nil || len(ret) != 0 {
		t.Fatalf("expect empty list, got %+v", ret)
	}
}

func testFilename(sizeFlags int64, tail string) string {
	return "M00/00/00/" + EncodeFilenameAttributes([4]byte{10, 0, 0, 7}, 1577836800, sizeFlags, 0xCAFEBABE) + "837.jpg" + tail
}

func TestDecodeFilenameAttributes(t *testing.T) {
	name := testFilename(1024, "")
	if len(name) != common.NORMAL_LOGIC_FILENAME_LENGTH {
		t.Fatalf("unexpected name length %d", len(name))
	}
	attr, err := DecodeFilenameAttributes(name)
	if err != nil {
		t.Fatal(err)
	}
	if attr.SourceIp != "10.0.0.7" || attr.CreateTimestamp != 1577836800 || attr.Crc32 != 0xCAFEBABE {
		t.Fatalf("unexpected attributes %+v", attr)
	}
	if attr.FileSize() != 1024 || !attr.Decodable(len(name)) {
		t.Fatalf("unexpected attributes %+v", attr)
	}

	if _, err = DecodeFilenameAttributes("M00/00/00/short.txt"); !errors.Is(err, common.InvalidArgumentErr) {
		t.Fatalf("expect invalid argument, got %v", err)
	}
}

func TestFilenameClassification(t *testing.T) {
	legacy := int64(-1<<63) | 0x12345678
	attr, err := DecodeFilenameAttributes(testFilename(legacy, ""))
	if err != nil {
		t.Fatal(err)
	}
	if attr.FileSize() != 0x12345678 {
		t.Fatalf("unexpected size %x", attr.FileSize())
	}

	appender, _ := DecodeFilenameAttributes(testFilename(common.APPENDER_FILE_SIZE|10, ""))
	if appender.Decodable(common.NORMAL_LOGIC_FILENAME_LENGTH) {
		t.Fatal("appender file must not be decodable")
	}

	// slave files have a longer name without the trunk mark
	slave, _ := DecodeFilenameAttributes(testFilename(10, "_150x150"))
	if slave.Decodable(common.NORMAL_LOGIC_FILENAME_LENGTH + 8) {
		t.Fatal("slave file must not be decodable")
	}

	trunk, _ := DecodeFilenameAttributes(testFilename(common.TRUNK_FILE_MARK_SIZE|10, "0000000000000000"))
	if !trunk.Decodable(common.TRUNK_LOGIC_FILENAME_LENGTH) {
		t.Fatal("trunk file must be decodable")
	}
	if trunk.Decodable(common.TRUNK_LOGIC_FILENAME_LENGTH + 1) {
		t.Fatal("overlong trunk name must not be decodable")
	}
}
