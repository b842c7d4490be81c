// Package realmnet 提供去中心化 presence 网络的客户端库
//
// realmnet 负责两件事：从候选服务器中选出要加入的 realm（可链式
// 评分管线），以及维护到该 realm 的传输连接（两种线级协议：BFF
// 与旧版 Broker/Coordinator）。渲染、音频编解码与应用状态管理
// 不在本库范围内，通过窄接口对接。
//
// # 核心概念
//
//   - Candidate: 一次扫描返回的 realm 广告（身份 + 人口/位置元数据）
//   - Realm: 被选中的服务端点（协议标签、主机名、服务器名）
//   - Link: 评分链中的一个独立决策单元，给出胜者或弃权
//   - CommsContext: 任意时刻至多持有一个活跃传输连接的会话
//
// # 快速开始
//
//	import "github.com/realmnet/go-realmnet"
//
//	// 1. 创建并启动客户端
//	client, err := realmnet.Start(ctx,
//	    realmnet.WithPosition(myPositionProvider),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Stop(context.Background())
//
//	// 2. 投喂扫描结果，触发选择与连接
//	realm, err := client.SetCandidates(candidates)
//
//	// 3. 话题收发
//	client.OnTopic(func(d types.TopicData) { ... })
//	client.SendTopic("chat", []byte("hello"))
//
// 协议标签 "v1"–"v4" 走旧版 coordinator 变体，其余走 BFF 变体。
package realmnet
