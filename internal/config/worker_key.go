package config

type WorkerKeyStruct struct {
	UpdateStatisticsQueue string
}

var WorkerKey = &WorkerKeyStruct{
	UpdateStatisticsQueue: "update_statistics_queue",
}
