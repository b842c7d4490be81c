// Package transport 提供两个线协议变体共享的基础设施
//
// 子包 bff 与 broker 分别实现两个连接状态机：
//   - bff: 二进制帧 + 挑战/应答认证 + 心跳 + 话题订阅
//   - broker: 旧版别名协商 + 统一话题转发
//
// 本包提供：错误分类、地址解析规则、以及 uvarint 长度前缀的
// 帧字段编解码原语。两个变体在 socket 打开时使用相同的
// 子协议协商标识。
package transport
