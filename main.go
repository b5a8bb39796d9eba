package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/reusedev/batch-hub/config"
	"github.com/reusedev/batch-hub/internal/components/mysql"
	"github.com/reusedev/batch-hub/internal/modules/ai"
	"github.com/reusedev/batch-hub/internal/modules/ai/image"
	"github.com/reusedev/batch-hub/internal/modules/ai/video"
	"github.com/reusedev/batch-hub/internal/modules/batch"
	"github.com/reusedev/batch-hub/internal/modules/dao"
	"github.com/reusedev/batch-hub/internal/modules/logs"
	"github.com/reusedev/batch-hub/internal/modules/model"
	"github.com/reusedev/batch-hub/internal/modules/storage/ali"
	"github.com/reusedev/batch-hub/internal/modules/storage/local"
	"github.com/reusedev/batch-hub/internal/service/http"
	"github.com/reusedev/batch-hub/internal/service/http/handler"
	"github.com/reusedev/batch-hub/tools"
)

var (
	httpPort   string
	configPath string
)

func init() {
	flag.StringVar(&httpPort, "http-port", ":80", "listen http port")
	flag.StringVar(&configPath, "config", "config.yml", "config file path")
}

func main() {
	flag.Parse()
	config.Init(tools.PanicOnError(tools.ReadFile(configPath)))
	logs.InitLogger()
	ctx, cancel := context.WithCancel(context.Background())
	if err := ai.InitTokenManager(ctx); err != nil {
		panic(err)
	}
	var recorder batch.Recorder
	if config.GConfig.MySQL.Enabled {
		mysql.InitMySQL(config.GConfig.MySQL)
		mysql.DB.AutoMigrate(&model.InvokeHistory{}, &model.OutputArtifact{})
		recorder = dao.Recorder{}
	}
	var uploader batch.Uploader
	if config.GConfig.StorageEnabled {
		switch config.GConfig.StorageSupplier {
		case "ali_oss":
			ali.InitOSS(config.GConfig.AliOss)
			uploader = ali.OssClient
		case "local":
			uploader = local.New(config.GConfig.Local)
		}
	}
	store := batch.NewStore()
	runner := batch.NewRunner(store, batch.RunnerConfig{
		Preparer: &batch.DefaultPreparer{Uploader: uploader},
		Editor:   batch.EditFunc(image.Edit),
		Animator: video.NewService(),
		Uploader: uploader,
		Recorder: recorder,
		Poll: batch.PollConfig{
			InitialDelay: config.GConfig.Poll.InitialDelayDuration(),
			MaxDelay:     config.GConfig.Poll.MaxDelayDuration(),
			Deadline:     config.GConfig.Poll.DeadlineDuration(),
		},
	})
	coordinator := batch.NewCoordinator(store, runner, config.GConfig.Batch.Concurrency)
	coordinator.Start(ctx)
	handler.Init(coordinator, uploader)
	osSignal := make(chan os.Signal, 1)
	signal.Notify(osSignal, syscall.SIGINT, syscall.SIGTERM)
	go func(ch chan os.Signal) {
		<-ch
		cancel()
		coordinator.Close()
		os.Exit(0)
	}(osSignal)
	http.Serve(httpPort)
}
