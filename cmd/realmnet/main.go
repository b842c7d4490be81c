// Package main 提供 realmnet 命令行入口
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/realmnet/go-realmnet"
	"github.com/realmnet/go-realmnet/internal/util/logger"
	"github.com/realmnet/go-realmnet/pkg/types"
)

var log = logger.Logger("realmnet/cmd")

// ═══════════════════════════════════════════════════════════════════════════
// 命令行参数
// ═══════════════════════════════════════════════════════════════════════════
var (
	configFile     = flag.String("config", "", "配置文件路径（JSON）")
	candidatesFile = flag.String("candidates", "", "候选集文件路径（JSON 数组）")
	realmHost      = flag.String("realm", "", "跳过选择，直接连接指定 realm 主机名")
	realmProto     = flag.String("protocol", "v5", "直连 realm 的协议标签（v1-v4 走旧版 coordinator）")
	topics         = flag.String("topics", "", "启动后订阅的话题（空格分隔）")
	showVersion    = flag.Bool("version", false, "显示版本信息")
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	flag.Parse()

	if *showVersion {
		fmt.Println(realmnet.VersionInfo())
		return nil
	}

	opts, err := buildOptions()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := realmnet.Start(ctx, opts...)
	if err != nil {
		return fmt.Errorf("启动客户端: %w", err)
	}
	defer func() {
		if err := client.Stop(context.Background()); err != nil {
			log.Warn("客户端停止出错", "err", err)
		}
	}()

	fmt.Printf("peer id: %s\n", client.PeerID())

	client.OnRealmChanged(func(ev types.RealmChangedEvent) {
		fmt.Printf("realm: %s (%s)\n", ev.Current.ServerName, ev.Current.Hostname)
	})
	client.OnIslandChanged(func(ev types.IslandChangedEvent) {
		fmt.Printf("island: %s\n", ev.ConnStr)
	})
	client.OnTopic(func(d types.TopicData) {
		fmt.Printf("[%s] %s: %d bytes\n", d.Topic, d.FromPeer.ShortString(), len(d.Payload))
	})

	if *realmHost != "" {
		realm := types.Realm{
			Protocol:   *realmProto,
			Hostname:   *realmHost,
			ServerName: *realmHost,
		}
		if err := client.ConnectRealm(ctx, realm); err != nil {
			return fmt.Errorf("连接 realm %s: %w", *realmHost, err)
		}
	}

	if *topics != "" {
		if err := client.SetTopics(strings.Fields(*topics)); err != nil {
			log.Warn("订阅话题失败", "err", err)
		}
	}

	// 等待退出信号
	<-ctx.Done()
	fmt.Println("\n正在退出 ...")
	return nil
}

// buildOptions 从命令行参数组装客户端选项
func buildOptions() ([]realmnet.Option, error) {
	var opts []realmnet.Option

	if *configFile != "" {
		data, err := os.ReadFile(*configFile)
		if err != nil {
			return nil, fmt.Errorf("读取配置文件: %w", err)
		}
		var cfg realmnet.UserConfig
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("解析配置文件: %w", err)
		}
		opts = append(opts, realmnet.WithUserConfig(cfg))
	}

	if *candidatesFile != "" {
		data, err := os.ReadFile(*candidatesFile)
		if err != nil {
			return nil, fmt.Errorf("读取候选集文件: %w", err)
		}
		var candidates []types.Candidate
		if err := json.Unmarshal(data, &candidates); err != nil {
			return nil, fmt.Errorf("解析候选集文件: %w", err)
		}
		opts = append(opts, realmnet.WithCandidates(candidates))
	}

	return opts, nil
}
