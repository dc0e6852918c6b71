// Package mediainfo 通过 ffprobe 读取课时视频的时长与分辨率
package mediainfo

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// VideoInfo 存储视频信息
type VideoInfo struct {
	Duration float64 `json:"duration"` // 秒
	Width    int     `json:"width"`
	Height   int     `json:"height"`
	Format   string  `json:"format"`
	Size     int64   `json:"size"`
}

// Minutes 向上取整的分钟数，用于 Lesson.DurationMinutes
func (v *VideoInfo) Minutes() int {
	if v.Duration <= 0 {
		return 0
	}
	return int(math.Ceil(v.Duration / 60))
}

type probeOutput struct {
	Streams []struct {
		CodecType string `json:"codec_type"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
		Size     string `json:"size"`
		Format   string `json:"format_name"`
	} `json:"format"`
}

// Probe 读取本地文件或 URL 的视频元数据
func Probe(path string) (*VideoInfo, error) {
	out, err := ffmpeg.Probe(path)
	if err != nil {
		return nil, fmt.Errorf("获取视频信息失败: %w", err)
	}
	return Parse([]byte(out))
}

// Parse 解析 ffprobe -show_format -show_streams 的 JSON 输出
func Parse(data []byte) (*VideoInfo, error) {
	var result probeOutput
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("解析视频信息失败: %w", err)
	}

	info := &VideoInfo{Format: "unknown"}
	for _, stream := range result.Streams {
		if stream.CodecType == "video" {
			info.Width = stream.Width
			info.Height = stream.Height
			break
		}
	}
	if info.Width == 0 {
		return nil, fmt.Errorf("no video stream found")
	}

	info.Duration, _ = strconv.ParseFloat(result.Format.Duration, 64)
	info.Size, _ = strconv.ParseInt(result.Format.Size, 10, 64)
	if name := strings.Split(result.Format.Format, ",")[0]; name != "" {
		info.Format = name
	}
	return info, nil
}

// Snapshot 截取 offset 秒处的一帧保存为 jpeg，用作课时视频封面
func Snapshot(videoPath, outPath string, offset float64) error {
	err := ffmpeg.Input(videoPath, ffmpeg.KwArgs{"ss": strconv.FormatFloat(offset, 'f', 1, 64)}).
		Output(outPath, ffmpeg.KwArgs{"vframes": "1", "q:v": "2"}).
		OverWriteOutput().
		Run()
	if err != nil {
		return fmt.Errorf("截取视频帧失败: %w", err)
	}
	return nil
}

// PosterOffset 短视频取中点，其余取第 3 秒
func (v *VideoInfo) PosterOffset() float64 {
	if v.Duration > 0 && v.Duration < 6 {
		return v.Duration / 2
	}
	return 3
}
