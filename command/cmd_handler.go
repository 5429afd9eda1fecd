package command

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hetianyi/gofdfs/api"
	"github.com/hetianyi/gofdfs/common"
	"github.com/hetianyi/gofdfs/util"
	"github.com/hetianyi/gox"
	"github.com/hetianyi/gox/convert"
	"github.com/hetianyi/gox/file"
	"github.com/hetianyi/gox/logger"
	"github.com/hetianyi/gox/pg"
	json "github.com/json-iterator/go"
	"github.com/logrusorgru/aurora"
)

// newTracker creates the tracker used by client commands.
var newTracker = func(c *common.ClientConfig) api.Tracker {
	return api.NewStaticTracker(c)
}

// initClient initializes StorageClient.
func initClient(c *common.ClientConfig) *api.StorageClient {
	return api.NewStorageClient(newTracker(c), nil)
}

func parseFileId(fileId string) (string, string, error) {
	group, filename, ok := common.SplitFileId(fileId)
	if !ok {
		return "", "", errors.New("invalid format fileId: " + fileId)
	}
	return group, filename, nil
}

func printJson(title string, v interface{}) {
	bs, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		logger.Error(err)
		return
	}
	logger.Info(title, "\n", string(bs))
}

func finish(action string, success int, total int) error {
	msg := action + " finish, success " + convert.IntToStr(success) + " of total " + convert.IntToStr(total)
	if success < total {
		return errors.New(msg)
	}
	logger.Info(aurora.BrightGreen(msg))
	return nil
}

// handleUploadFile handles upload files by client cli.
func handleUploadFile(client *api.StorageClient) error {
	metaList, err := util.ParseMetaList(uploadMeta)
	if err != nil {
		return err
	}
	var masterGroup, masterFilename string
	if uploadMaster != "" {
		if masterGroup, masterFilename, err = parseFileId(uploadMaster); err != nil {
			return err
		}
	}
	total := 0   // total files
	success := 0 // success files
	gox.WalkList(&uploadFiles, func(item interface{}) bool {
		total++
		ret, err := uploadFile(client, item.(string), masterGroup, masterFilename, metaList)
		if err != nil {
			logger.Error("error upload file ", item.(string), ": ", err)
			return false
		}
		success++
		printJson("upload success: "+item.(string)+" -> "+ret.FileId(), ret)
		return false
	})
	return finish("upload", success, total)
}

func uploadFile(client *api.StorageClient, localFile string, masterGroup string, masterFilename string,
	metaList []common.MetaData) (*common.UploadResult, error) {
	fi, err := file.GetFile(localFile)
	if err != nil {
		return nil, err
	}
	defer fi.Close()
	inf, err := fi.Stat()
	if err != nil {
		return nil, err
	}
	if inf.IsDir() {
		return nil, errors.New("not a regular file")
	}
	ext := uploadExt
	if ext == "" {
		ext = api.GetFileExtName(inf.Name())
	}

	r := &pg.WrappedReader{Reader: fi}
	// show upload progressbar.
	pro := pg.NewWrappedReaderProgress(inf.Size(), 50, "uploading "+inf.Name(), pg.Top, r)
	pusher := &api.StreamPusher{Reader: r, Size: inf.Size()}
	var ret *common.UploadResult
	switch {
	case masterFilename != "":
		ret, err = client.UploadSlaveFile(masterGroup, masterFilename, uploadPrefix, inf.Size(), pusher, ext, metaList)
	case uploadAppender:
		ret, err = client.UploadAppenderFile(uploadGroup, inf.Size(), pusher, ext, metaList)
	default:
		ret, err = client.UploadFile(uploadGroup, inf.Size(), pusher, ext, metaList)
	}
	if err != nil {
		pro.Destroy()
		return nil, err
	}
	return ret, nil
}

// handleDownloadFile handles download files by client cli.
func handleDownloadFile(client *api.StorageClient) error {
	if customDownloadFileName != "" && downloadFiles.Len() > 1 {
		return errors.New("custom filename is only available when downloading one file")
	}
	wd, err := file.GetWorkDir()
	if err != nil {
		return err
	}
	total := 0   // total files
	success := 0 // success files
	gox.WalkList(&downloadFiles, func(item interface{}) bool {
		total++
		fileId := item.(string)
		localFile := customDownloadFileName
		if localFile == "" {
			if _, filename, ok := common.SplitFileId(fileId); ok {
				localFile = filepath.Join(wd, filepath.Base(filename))
			}
		}
		if err := downloadFile(client, fileId, localFile); err != nil {
			logger.Error("error downloading file ", fileId, ": ", err)
			return false
		}
		success++
		logger.Info("download success: ", fileId, " -> ", localFile)
		return false
	})
	return finish("download", success, total)
}

func downloadFile(client *api.StorageClient, fileId string, localFile string) error {
	group, filename, err := parseFileId(fileId)
	if err != nil {
		return err
	}
	parent := filepath.Dir(localFile)
	if !file.Exists(parent) {
		if err := file.CreateDirs(parent); err != nil {
			return err
		}
	}

	var out *os.File
	var w *pg.WrappedWriter
	err = client.DownloadToPuller(group, filename, downloadOffset, downloadLength, api.PullFunc(func(total int64, chunk []byte) error {
		if w == nil {
			o, err := file.CreateFile(localFile)
			if err != nil {
				return err
			}
			out = o
			w = &pg.WrappedWriter{Writer: out}
			// show download progressbar.
			pg.NewWrappedWriterProgress(total, 50, "downloading "+fileId, pg.Top, w)
		}
		_, err := w.Write(chunk)
		return err
	}))
	if err == nil && out == nil {
		// empty content
		out, err = file.CreateFile(localFile)
	}
	if out != nil {
		out.Close()
		if err != nil {
			file.Delete(localFile)
		}
	}
	if err != nil {
		return err
	}
	if downloadVerify {
		return verifyFile(client, group, filename, localFile)
	}
	return nil
}

// verifyFile compares the crc32 signature of a downloaded file with the
// one recorded by the storage server.
func verifyFile(client *api.StorageClient, group string, filename string, localFile string) error {
	if downloadOffset != 0 || downloadLength != 0 {
		logger.Warn("skip verifying partial download of ", group, "/", filename)
		return nil
	}
	info, err := client.GetFileInfo(group, filename)
	if err != nil {
		return err
	}
	if info.Crc32 == 0 {
		logger.Warn("no crc32 signature recorded for ", group, "/", filename)
		return nil
	}
	crc, err := util.Crc32OfFile(localFile)
	if err != nil {
		return err
	}
	if crc != info.Crc32 {
		return errors.New("crc32 signature mismatch, expect " + convert.Int64ToStr(int64(info.Crc32)) +
			", got " + convert.Int64ToStr(int64(crc)))
	}
	return nil
}

// handleDeleteFile handles delete files by client cli.
func handleDeleteFile(client *api.StorageClient) error {
	total := 0
	success := 0
	gox.WalkList(&deleteFiles, func(item interface{}) bool {
		total++
		group, filename, err := parseFileId(item.(string))
		if err == nil {
			err = client.DeleteFile(group, filename)
		}
		if err != nil {
			logger.Error("error delete file ", item.(string), ": ", err)
			return false
		}
		success++
		logger.Info("delete success: ", item.(string))
		return false
	})
	return finish("delete", success, total)
}

func handleTruncateFile(client *api.StorageClient) error {
	group, filename, err := parseFileId(truncateFileId)
	if err != nil {
		return err
	}
	if err = client.TruncateFileSize(group, filename, truncateSize); err != nil {
		return err
	}
	logger.Info(aurora.BrightGreen("truncate success: " + truncateFileId + " -> " + convert.Int64ToStr(truncateSize)))
	return nil
}

func handleAppendFile(client *api.StorageClient) error {
	group, filename, err := parseFileId(appendFileId)
	if err != nil {
		return err
	}
	if err = client.AppendLocalFile(group, filename, appendFile); err != nil {
		return err
	}
	logger.Info(aurora.BrightGreen("append success: " + appendFile + " -> " + appendFileId))
	return nil
}

// inspectResult is the printed form of a file info.
type inspectResult struct {
	*common.FileInfo
	CreateTime string `json:"createTime"`
}

func newInspectResult(info *common.FileInfo) *inspectResult {
	return &inspectResult{
		FileInfo:   info,
		CreateTime: info.CreateTime().Format("2006-01-02 15:04:05"),
	}
}

// handleInspectFile handles query file information by client cli.
func handleInspectFile(client *api.StorageClient) error {
	resultMap := make(map[string]*inspectResult)
	total := 0
	success := 0
	gox.WalkList(&inspectFiles, func(item interface{}) bool {
		total++
		group, filename, err := parseFileId(item.(string))
		if err != nil {
			logger.Warn(err)
			return false
		}
		info, err := client.GetFileInfo(group, filename)
		if err != nil {
			logger.Error("error inspect file ", item.(string), ": ", err)
			return false
		}
		resultMap[item.(string)] = newInspectResult(info)
		success++
		return false
	})
	printJson("inspect result:", resultMap)
	return finish("inspect", success, total)
}

func handleGetMetadata(client *api.StorageClient) error {
	group, filename, err := parseFileId(metaFileId)
	if err != nil {
		return err
	}
	list, err := client.GetMetadata(group, filename)
	if err != nil {
		return err
	}
	printJson("metadata of "+metaFileId+":", util.FormatMetaList(list))
	return nil
}

func handleSetMetadata(client *api.StorageClient) error {
	group, filename, err := parseFileId(metaFileId)
	if err != nil {
		return err
	}
	list, err := util.ParseMetaList(metaList)
	if err != nil {
		return err
	}
	flag := gox.TValue(metaMerge, common.STORAGE_SET_METADATA_FLAG_MERGE, common.STORAGE_SET_METADATA_FLAG_OVERWRITE).(byte)
	if err = client.SetMetadata(group, filename, list, flag); err != nil {
		return err
	}
	logger.Info(aurora.BrightGreen("set metadata success: " + metaFileId))
	return nil
}

// handleUpdateConfig persists "name=value" settings.
func handleUpdateConfig() error {
	configMap, err := openConfigMap()
	if err != nil {
		return err
	}
	defer closeConfigMap(configMap)

	items := util.ListToStrings(&updateConfigList)
	for _, item := range items {
		pos := strings.Index(item, "=")
		if pos <= 0 {
			return errors.New("invalid setting \"" + item + "\", expect name=value")
		}
		if err := util.CheckConfigKey(item[:pos], item[pos+1:]); err != nil {
			return err
		}
	}
	for _, item := range items {
		pos := strings.Index(item, "=")
		key, value := item[:pos], item[pos+1:]
		if value == "" {
			err = configMap.DeleteConfig(key)
		} else {
			err = configMap.PutConfig(key, []byte(value))
		}
		if err != nil {
			return err
		}
		logger.Info(aurora.BrightGreen("update config: " + key + "=" + value))
	}
	return nil
}

func handleShowConfig() error {
	configMap, err := openConfigMap()
	if err != nil {
		return err
	}
	defer closeConfigMap(configMap)

	all, err := configMap.ListConfig()
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(all))
	for k := range all {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var buff strings.Builder
	for _, k := range keys {
		buff.WriteString("\n" + k + " = " + all[k])
	}
	logger.Info("settings:", buff.String())
	return nil
}
