// Package kafka 提供了与 Kafka 消息队列交互的功能。
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"consumerai-go/internal/config"
	"consumerai-go/pkg/database"
	"consumerai-go/pkg/log"
	"consumerai-go/pkg/tasks"

	"github.com/segmentio/kafka-go"
)

// TaskProcessor defines the interface for any service that can process an ingest task.
// This decouples the Kafka consumer from the concrete pipeline implementation.
type TaskProcessor interface {
	Process(ctx context.Context, task tasks.DocumentIngestTask) error
}

var (
	ingestProducer *kafka.Writer
	eventProducer  *kafka.Writer
)

// InitProducers 初始化 Kafka 生产者（摄取任务与积分事件各一个）。
func InitProducers(cfg config.KafkaConfig) {
	ingestProducer = &kafka.Writer{
		Addr:     kafka.TCP(cfg.Brokers),
		Topic:    cfg.IngestTopic,
		Balancer: &kafka.LeastBytes{},
	}
	eventProducer = &kafka.Writer{
		Addr:     kafka.TCP(cfg.Brokers),
		Topic:    cfg.EventsTopic,
		Balancer: &kafka.LeastBytes{},
	}
	log.Info("Kafka 生产者初始化成功")
}

// ProduceIngestTask 发送一个文档摄取任务到 Kafka。
func ProduceIngestTask(task tasks.DocumentIngestTask) error {
	if ingestProducer == nil {
		return fmt.Errorf("kafka ingest producer is not initialized")
	}

	taskBytes, err := json.Marshal(task)
	if err != nil {
		return err
	}

	return ingestProducer.WriteMessages(context.Background(),
		kafka.Message{
			Value: taskBytes,
		},
	)
}

// ProduceCreditEvent 发送一条积分变动事件。
// 这是尽力而为的副作用，调用方应当吞掉错误只做日志。
func ProduceCreditEvent(evt tasks.CreditEvent) error {
	if eventProducer == nil {
		return fmt.Errorf("kafka event producer is not initialized")
	}

	evtBytes, err := json.Marshal(evt)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	return eventProducer.WriteMessages(ctx, kafka.Message{Value: evtBytes})
}

// StartConsumer 启动一个 Kafka 消费者来处理文档摄取任务。
func StartConsumer(cfg config.KafkaConfig, processor TaskProcessor) {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  []string{cfg.Brokers},
		Topic:    cfg.IngestTopic,
		GroupID:  "consumerai-ingest-consumer",
		MinBytes: 10e3, // 10KB
		MaxBytes: 10e6, // 10MB
	})

	log.Infof("Kafka 消费者已启动，正在监听主题 '%s'", cfg.IngestTopic)

	fetchFailures := 0
	for {
		m, err := r.FetchMessage(context.Background())
		if err != nil {
			fetchFailures++
			wait := fetchBackoff(fetchFailures)
			log.Errorf("从 Kafka 读取消息失败(第 %d 次)，%s 后重试: %v", fetchFailures, wait, err)
			time.Sleep(wait)
			continue
		}
		fetchFailures = 0

		log.Debugf("收到 Kafka 消息: offset %d", m.Offset)

		var task tasks.DocumentIngestTask
		if err := json.Unmarshal(m.Value, &task); err != nil {
			log.Errorf("无法解析 Kafka 消息: %v, value: %s", err, string(m.Value))
			// 消息格式错误，直接提交，避免阻塞队列
			if err := r.CommitMessages(context.Background(), m); err != nil {
				log.Errorf("提交错误消息失败: %v", err)
			}
			continue
		}

		log.Infof("开始处理摄取任务: MD5=%s, FileName=%s", task.FileMD5, task.FileName)
		// 同步处理任务
		if err := processor.Process(context.Background(), task); err != nil {
			log.Errorf("处理摄取任务失败: MD5=%s, Error: %v", task.FileMD5, err)
			// 使用 Redis 计数失败次数，达到阈值后提交 offset 终止重试
			attemptsKey := fmt.Sprintf("kafka:attempts:%s", task.FileMD5)
			attempts, incErr := database.RDB.Incr(context.Background(), attemptsKey).Result()
			if incErr == nil {
				_ = database.RDB.Expire(context.Background(), attemptsKey, 24*time.Hour).Err()
			}
			if incErr != nil {
				// Redis 异常时保守处理：不提交 offset，让 Kafka 重试
				continue
			}
			if attempts >= 3 {
				log.Errorf("摄取任务多次失败(>=3)，提交 offset 终止重试: MD5=%s", task.FileMD5)
				if err := r.CommitMessages(context.Background(), m); err != nil {
					log.Errorf("提交 Kafka 消息 offset 失败: %v", err)
				}
			}
			// attempts < 3 时，不提交 offset 让 Kafka 自动重试
		} else {
			log.Infof("摄取任务处理成功: MD5=%s", task.FileMD5)
			// 清理失败计数
			_ = database.RDB.Del(context.Background(), fmt.Sprintf("kafka:attempts:%s", task.FileMD5)).Err()
			// 任务处理成功后，手动提交 offset
			if err := r.CommitMessages(context.Background(), m); err != nil {
				log.Errorf("提交 Kafka 消息 offset 失败: %v", err)
			}
		}
	}
}

// fetchBackoff 返回连续第 failures 次读取失败后的等待时间。
// 从 1 秒起按次翻倍，封顶 30 秒。
func fetchBackoff(failures int) time.Duration {
	wait := time.Second
	for i := 1; i < failures; i++ {
		wait *= 2
		if wait >= maxFetchBackoff {
			return maxFetchBackoff
		}
	}
	return wait
}

const maxFetchBackoff = 30 * time.Second
