package domain

import "encoding/json"

// NodeInfo — снимок plugin instance на момент опроса.
//
// Создаётся удалённой платформой; после получения не изменяется.
type NodeInfo struct {
	// ID — идентификатор plugin instance.
	ID int `json:"id"`

	// Title — человекочитаемое имя узла.
	// По нему выполняется поиск в истории (см. NodeRef).
	Title string `json:"title"`

	// Status — статус выполнения.
	Status NodeStatus `json:"status"`

	// PluginName — имя плагина (например, "pl-topologicalcopy").
	PluginName string `json:"plugin_name,omitempty"`

	// PreviousID — ID родительского узла (0, если корень).
	PreviousID int `json:"previous_id,omitempty"`

	// Raw — исходный ответ платформы.
	Raw json.RawMessage `json:"raw,omitempty"`
}

// Pipeline — шаблон workflow на платформе.
type Pipeline struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Plugin — зарегистрированный на платформе плагин.
type Plugin struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

// ParameterDefault — значение параметра плагина по умолчанию.
type ParameterDefault struct {
	Name    string `json:"name"`
	Default any    `json:"default"`
}

// PipingDefaults — конфигурация одного узла pipeline.
//
// Список PipingDefaults — это payload "nodes_info", который
// передаётся при создании workflow.
type PipingDefaults struct {
	// PipingID — ID узла внутри pipeline.
	PipingID int `json:"piping_id"`

	// ComputeResource — имя compute-ресурса.
	ComputeResource string `json:"compute_resource_name"`

	// Title — имя, которое получит plugin instance.
	Title string `json:"title,omitempty"`

	// Defaults — параметры по умолчанию.
	Defaults []ParameterDefault `json:"plugin_parameter_defaults"`
}

// JoinRequest — параметры для создания topological join узла.
type JoinRequest struct {
	// Title — имя join узла.
	Title string `json:"title"`

	// Filter — какие файлы берутся из каждого входа (например, "\.dcm$,\.json$").
	Filter string `json:"filter"`

	// InputIDs — все объединяемые узлы.
	InputIDs []int `json:"input_ids"`

	// PreviousID — объявленный родитель join узла.
	PreviousID int `json:"previous_id"`
}

// PluginInstanceRequest — создание произвольного plugin instance.
type PluginInstanceRequest struct {
	// PreviousID — родительский узел.
	PreviousID int `json:"previous_id"`

	// Title — имя узла.
	Title string `json:"title,omitempty"`

	// Params — параметры плагина.
	Params map[string]any `json:"params,omitempty"`
}
