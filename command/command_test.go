package command

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hetianyi/gofdfs/api"
	"github.com/hetianyi/gofdfs/api/apitest"
	"github.com/hetianyi/gofdfs/common"
	"github.com/hetianyi/gox/logger"
)

func init() {
	logger.Init(&logger.Config{
		Level: logger.DebugLevel,
	})
}

type commandTest struct {
	t       *testing.T
	dir     string
	storage *apitest.StorageNode
	tracker *apitest.Tracker
}

func newCommandTest(t *testing.T) *commandTest {
	os.Unsetenv(common.ENV_STORAGES)
	os.Unsetenv(common.ENV_LOG_LEVEL)
	dir, err := ioutil.TempDir("", "gofdfs-command-test")
	if err != nil {
		t.Fatal(err)
	}
	storage := apitest.NewStorageNode()
	tracker := apitest.NewTracker(storage)
	newTracker = func(c *common.ClientConfig) api.Tracker {
		return tracker
	}
	configMapFile = filepath.Join(dir, "cfg", common.DEFAULT_CONFIG_MAP_FILE)
	return &commandTest{
		t:       t,
		dir:     dir,
		storage: storage,
		tracker: tracker,
	}
}

func (ct *commandTest) close() {
	configMapFile = ""
	os.RemoveAll(ct.dir)
}

func (ct *commandTest) run(args ...string) error {
	return run(append([]string{"gofdfs", "--storages", apitest.Group + "@127.0.0.1:23000"}, args...))
}

func (ct *commandTest) mustRun(args ...string) {
	if err := ct.run(args...); err != nil {
		ct.t.Fatalf("%v: %v", args, err)
	}
}

func (ct *commandTest) writeFile(name string, content string) string {
	local := filepath.Join(ct.dir, name)
	if err := ioutil.WriteFile(local, []byte(content), 0644); err != nil {
		ct.t.Fatal(err)
	}
	return local
}

// lastUploaded returns the fileId of the file missing from before.
func (ct *commandTest) lastUploaded(before []string) string {
	exists := make(map[string]bool)
	for _, name := range before {
		exists[name] = true
	}
	for _, name := range ct.storage.Filenames() {
		if !exists[name] {
			return apitest.Group + "/" + name
		}
	}
	ct.t.Fatal("no file uploaded")
	return ""
}

func TestUploadDownloadCommands(t *testing.T) {
	ct := newCommandTest(t)
	defer ct.close()

	local := ct.writeFile("hello.txt", "hello world")
	ct.mustRun("upload", "-g", apitest.Group, "-m", "owner=bob", local)
	fileId := ct.lastUploaded(nil)
	group, filename, _ := common.SplitFileId(fileId)
	if filepath.Ext(filename) != ".txt" {
		t.Fatalf("expect ext taken from local file, got %s", filename)
	}

	out := filepath.Join(ct.dir, "out", "hello.txt")
	ct.mustRun("download", "-n", out, "--verify", fileId)
	if data, err := ioutil.ReadFile(out); err != nil || string(data) != "hello world" {
		t.Fatalf("unexpected download %q, %v", data, err)
	}

	partial := filepath.Join(ct.dir, "partial.txt")
	ct.mustRun("download", "-n", partial, "--offset", "6", "--length", "3", fileId)
	if data, _ := ioutil.ReadFile(partial); string(data) != "wor" {
		t.Fatalf("unexpected partial download %q", data)
	}

	ct.mustRun("info", fileId)
	info, err := api.NewStorageClient(ct.tracker, nil).GetFileInfo(group, filename)
	if err != nil {
		t.Fatal(err)
	}
	result := newInspectResult(info)
	if result.FileSize != 11 || result.CreateTime != time.Unix(apitest.Timestamp, 0).Format("2006-01-02 15:04:05") {
		t.Fatalf("unexpected inspect result %+v", result)
	}
	ct.mustRun("meta", "set", "--merge", fileId, "width=100")
	client := api.NewStorageClient(ct.tracker, nil)
	meta, err := client.GetMetadata(group, filename)
	if err != nil {
		t.Fatal(err)
	}
	if len(meta) != 2 || meta[0].Name != "owner" || meta[1].Value != "100" {
		t.Fatalf("unexpected metadata %+v", meta)
	}
	ct.mustRun("meta", "set", fileId, "height=50")
	if meta, _ = client.GetMetadata(group, filename); len(meta) != 1 || meta[0].Name != "height" {
		t.Fatalf("expect metadata overwritten, got %+v", meta)
	}
	ct.mustRun("meta", "get", fileId)

	ct.mustRun("delete", fileId)
	if ct.storage.FileCount() != 0 {
		t.Fatal("expect file deleted")
	}
	if err = ct.run("delete", fileId); err == nil {
		t.Fatal("expect error deleting missing file")
	}
	if err = ct.run("download", "-n", out, fileId); err == nil {
		t.Fatal("expect error downloading missing file")
	}
	if data, _ := ioutil.ReadFile(out); string(data) != "hello world" {
		t.Fatal("existing local file must survive a failed download")
	}
}

func TestAppenderCommands(t *testing.T) {
	ct := newCommandTest(t)
	defer ct.close()

	ct.mustRun("upload", "--appender", "--ext", "log", ct.writeFile("a.bin", "abc"))
	fileId := ct.lastUploaded(nil)
	_, filename, _ := common.SplitFileId(fileId)
	if ct.storage.CountCmd(common.STORAGE_PROTO_CMD_UPLOAD_APPENDER_FILE) != 1 || filepath.Ext(filename) != ".log" {
		t.Fatalf("unexpected appender upload %s", fileId)
	}

	ct.mustRun("append", fileId, ct.writeFile("b.bin", "defg"))
	if data, _ := ct.storage.File(filename); string(data) != "abcdefg" {
		t.Fatalf("unexpected content %q", data)
	}
	ct.mustRun("truncate", "--size", "2", fileId)
	if data, _ := ct.storage.File(filename); string(data) != "ab" {
		t.Fatalf("unexpected content %q", data)
	}

	before := ct.storage.Filenames()
	ct.mustRun("upload", "--master", fileId, "--prefix", "_thumb", ct.writeFile("thumb.png", "png"))
	slaveId := ct.lastUploaded(before)
	if ct.storage.CountCmd(common.STORAGE_PROTO_CMD_UPLOAD_SLAVE_FILE) != 1 || filepath.Ext(slaveId) != ".png" {
		t.Fatalf("unexpected slave upload %s", slaveId)
	}
}

func TestCommandErrors(t *testing.T) {
	ct := newCommandTest(t)
	defer ct.close()

	for _, args := range [][]string{
		{"upload"},
		{"upload", filepath.Join(ct.dir, "missing.txt")},
		{"upload", "-m", "=x", ct.writeFile("a.txt", "a")},
		{"upload", "--master", "nogroup", ct.writeFile("b.txt", "b")},
		{"download", "nogroup"},
		{"download", "-n", "x", apitest.Group + "/a", apitest.Group + "/b"},
		{"truncate"},
		{"append", apitest.Group + "/a"},
		{"meta", "get", "nogroup"},
		{"info", apitest.Group + "/M00/00/00/missing.jpg"},
	} {
		if err := ct.run(args...); err == nil {
			t.Fatalf("expect error for %v", args)
		}
	}
	if ct.storage.FileCount() != 0 {
		t.Fatal("no file expected")
	}

	if err := run([]string{"gofdfs", "info", apitest.Group + "/a"}); err == nil {
		t.Fatal("expect error without storage servers")
	}
}

func TestConfigCommands(t *testing.T) {
	ct := newCommandTest(t)
	defer ct.close()

	if err := run([]string{"gofdfs", "config", "set", "unknown=1"}); err == nil {
		t.Fatal("expect error for unknown key")
	}
	if err := run([]string{"gofdfs", "config", "set", "storages=bad"}); err == nil {
		t.Fatal("expect error for invalid storages")
	}
	if err := run([]string{"gofdfs", "config", "set",
		common.CONFIG_KEY_STORAGES + "=" + apitest.Group + "@127.0.0.1:23000",
		common.CONFIG_KEY_CONNECT_TIMEOUT + "=3"}); err != nil {
		t.Fatal(err)
	}
	if err := run([]string{"gofdfs", "config", "ls"}); err != nil {
		t.Fatal(err)
	}

	resetVars()
	c, err := ConfigAssembly(INSPECT_FILE)
	if err != nil {
		t.Fatal(err)
	}
	if c.ConnectTimeout != 3 || len(c.ParsedStorages) != 1 || c.ParsedStorages[0].Group != apitest.Group {
		t.Fatalf("unexpected config %+v", c)
	}

	configFile = ct.writeFile("client.yml", "connectTimeout: 7\nnetworkTimeout: 8\n")
	c, err = ConfigAssembly(INSPECT_FILE)
	if err != nil {
		t.Fatal(err)
	}
	if c.ConnectTimeout != 7 || c.NetworkTimeout != 8 || len(c.ParsedStorages) != 1 {
		t.Fatalf("unexpected config %+v", c)
	}

	resetVars()
	gatewayPort = 9000
	g, err := ConfigAssembly(BOOT_GATEWAY)
	if err != nil {
		t.Fatal(err)
	}
	if g.HttpPort != 9000 {
		t.Fatalf("unexpected gateway config %+v", g)
	}

	if err = run([]string{"gofdfs", "config", "set", common.CONFIG_KEY_STORAGES + "="}); err != nil {
		t.Fatal(err)
	}
	if err = run([]string{"gofdfs", "info", apitest.Group + "/a"}); err == nil {
		t.Fatal("expect error after storages removed")
	}
}
